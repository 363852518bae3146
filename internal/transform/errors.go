package transform

import "errors"

var (
	// ErrGeometryNotReady is returned when a source or target lacks a
	// projection, extent, scale or parameter.
	ErrGeometryNotReady = errors.New("geometry not ready")
	// ErrReprojection is returned when a coordinate cannot be mapped between projections.
	ErrReprojection = errors.New("reprojection failed")
	// ErrAllocation is returned when a product cannot be constructed.
	ErrAllocation = errors.New("product allocation failed")
	// ErrInvalidArgument is returned for nil inputs and out-of-range methods.
	ErrInvalidArgument = errors.New("invalid argument")
)
