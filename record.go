package tagnorm

import "github.com/veldran/tagnorm/internal/types"

// Record is the canonical metadata record returned by extraction.
//
// Optional string fields use "" as the absent marker: extraction never
// stores an empty string, so "" always means "not present in any consulted
// tag". Numeric fields default to 0 and Compilation to false. The record is
// built in one pass and not mutated after the call returns; artwork bytes
// are owned by the record.
type Record = types.Record

// Warning is a non-fatal issue collected during extraction. A corrupt
// dialect structure contributes a warning and is otherwise skipped.
type Warning = types.Warning
