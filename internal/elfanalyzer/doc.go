// Package elfanalyzer extracts the shared-library dependencies declared by an ELF object.
//
// The analysis works on an in-memory buffer and never reads past it. It identifies the
// object class and byte order, decodes the fixed-size header, locates the SHT_DYNAMIC
// section, walks its (tag, value) entries and resolves each DT_NEEDED offset through the
// dynamic string table.
//
// # Usage
//
//	deps, err := elfanalyzer.Analyze(buf)
//	if err != nil {
//	    // ErrNotELF, ErrMalformedHeader
//	}
//	for _, lib := range deps.Libraries {
//	    fmt.Println(lib)
//	}
//
// # Failure granularity
//
// Whole-object failures are returned as errors. A single unresolvable DT_NEEDED entry is
// reported in Dependencies.Warnings and the remaining entries are still resolved. Objects
// without a dynamic section are not an error: they are returned with Static set and no
// libraries.
//
// The package does not log. Callers decide how to report warnings.
package elfanalyzer
