// Package lindt resolves linked datatypes: literal datatypes whose behavior
// is defined by a resource published at the datatype URI itself.
//
// Copyright 2026 Geoknoesis LLC (www.geoknoesis.com)
//
// A datatype URI such as http://example.org/units.js#length names the
// resource http://example.org/units.js. The first time the engine meets the
// URI it fetches that resource, evaluates it once, and asks the resulting
// Factory for the type "…#length". The answer, positive or negative, is kept
// for the lifetime of the Engine (or until Reset).
//
//	eng, err := lindt.New(script.EngineOption())
//	if err != nil {
//	    // handle error
//	}
//	ok := eng.Equal(ctx, "1km", lengthURI, "1000m", lengthURI) // true
//	_, err = eng.Parse(ctx, "1 banana", lengthURI)             // *DatatypeFormatError
//
// Externally supplied logic is never trusted to behave: errors, panics and
// out-of-contract answers are logged and degrade to "not valid", "not
// equal", or "no canonical form". Parse is the only operation that reports
// a failure, and only a *DatatypeFormatError for rejected lexical forms.
//
// Parsed values are deduplicated per datatype in a ValueCache that evicts
// in insertion order (FIFO), not by recency.
package lindt
