// Package domain models the messages of the radar transform service:
// product requests read from the source topic and the products written to
// the sink topic.
//
// # Requests
//
// A request names a product kind and carries its input inline:
//
//	ppi     sweep  -> grid on a catalog area
//	cappi   volume -> grid at a constant height, nodata outside the volume
//	pcappi  volume -> grid at a constant height, nearest sweep outside
//	scan    grid   -> sweep a catalog radar would record at one elevation
//	pvol    grid   -> volume over every elevation of a catalog radar
//
// Areas and radars are referenced by catalog id; see package catalog.
//
// # Units
//
// Angles (elevation, beamwidth, lon/lat) are degrees. Lengths (range bin
// size, range start, heights, projected coordinates) are metres.
//
// # Raw values
//
// Parameters travel as rows of raw values together with gain, offset and
// the nodata/undetect sentinels. A raw value equal to nodata is nodata, else
// one equal to undetect is undetect, else it is data and means
// offset + gain*raw. Sweep rows are rays and columns range bins; grid row 0
// is the northern edge.
//
// # ID Generation
//
// Product IDs are deterministic SHA-256 hashes of the product kind, area,
// radar, quantity, height, elevation, gap filling, input time and request id,
// so replays publish under the same key. See [productID].
package domain
