// Package script evaluates linked datatype definition resources written in
// JavaScript, using the goja runtime.
//
// A resource defines a global factory function, getDatatype by default:
//
//	function getDatatype(uri) {
//	    if (!uri.endsWith("#length")) return null;
//	    return {
//	        isLegal:     function (lex) { ... },       // boolean
//	        createValue: function (lex) { ... },       // value object
//	        recognizes:  function (otherURI) { ... },  // boolean
//	        importValue: function (value) { ... },     // value object or null
//	        equals:      function (a, b) { ... },      // boolean
//
//	        // optional
//	        canonicalize: function (value) { ... },        // {lexicalForm: "...", ...}
//	        compare:      function (a, b) { ... },         // number
//	        exportValue:  function (value, targetURI) { ... }
//	    };
//	}
//
// Returning null or undefined means the resource does not define uri. A type
// object missing any required function is rejected when it is resolved.
// Values are plain data: when a value crosses from one resource to another
// it is copied, so methods and prototypes do not survive the trip.
//
// console.log, console.warn and friends write to the configured slog.Logger.
package script
