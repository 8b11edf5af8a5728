// Package domain models the annual climate series used to build the country
// comparison figures.
//
// # Data Source
//
// Series come from the World Bank Climate Data API, historical CRU station
// data, one request per (variable, resolution, country):
//
//	{base}/cru/pr/year/USA.json   →   [{"year":1901,"data":61.3}, ...]
//	{base}/cru/tas/year/USA.json  →   [{"year":1901,"data":6.52}, ...]
//
// "pr" is precipitation in millimetres and "tas" is near-surface air
// temperature in degrees Celsius. Countries are ISO 3166-1 alpha-3 codes.
//
// # Table Shape
//
// A precipitation [Table] and a temperature [Table] are assembled in the same
// order: palette country order first, then the API's year order. [Merge]
// refuses to combine tables whose (year, country) keys do not line up row for
// row, since every later index lookup relies on positional alignment.
//
// # Derived Values
//
// Everything downstream of [Merge] is read-only:
//
//	CountryIndex   code → row positions, partitions the frame
//	Ranges         global min/max of temperature and precipitation
//	PolygonShape   years + reversed years, precipitation + zeros
//	Lowess         local regression trend used for every smoothed curve
//
// Peak temperature ties resolve to the lowest year. Mean precipitation ties
// resolve to palette order.
package domain
