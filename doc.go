/*
Package canl3 reads and writes CanL3, a compact, line-oriented text format for
JSON-shaped data, and evaluates JSONPath-like queries against decoded
documents.

A CanL3 document starts with optional # headers and @ directives, followed by
indented key lines. Uniform lists of flat objects are written once as a column
header and delimited rows, which is where most of the savings over JSON come
from:

	#version 1.0
	users[2]{id,name,role}:
	  1,Alice,admin
	  2,Bob,user
	meta:
	  count: 2

1. Values

Decode and Encode convert between text and *value.Value trees, which keep
object member order. Parse additionally returns the header and directives.
Marshal and Unmarshal work with ordinary Go values through the same rules as
encoding/json:

	var cfg struct {
		Users []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"users"`
	}
	if err := canl3.Unmarshal(data, &cfg); err != nil {
		// handle error
	}

2. Queries

ParsePath compiles an expression once; Query and Get are shortcuts:

	names, err := canl3.Query(doc, "$.users[?(@.role == 'admin')].name")

Supported segments are .name, ['name'], [index] (negative from the end),
[start:end:step], [*], .*, ..name, ..* and [?(predicate)]. Predicates compare
@ (the current element) and $ (the root) paths with literals using
== != < <= > >= and combine them with && || and !.

Decoding, encoding and query parsing are bounded by depth and size limits
that can be adjusted with options such as MaxDepth, MaxBlockLines and
MaxQueryLength.
*/
package canl3
