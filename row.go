package strata

// Row is a single record of data, mapping column names to values
type Row map[string]interface{}

// Clone returns a shallow copy of this Row
func (r Row) Clone() Row {
	clone := make(Row, len(r))
	for k, v := range r {
		clone[k] = v
	}
	return clone
}

// Block is an ordered sequence of Rows, and is the unit of data movement
// and scheduling between Stages
type Block []Row

// Clone returns a copy of this Block, shallow-copying each Row
func (b Block) Clone() Block {
	clone := make(Block, len(b))
	for i, r := range b {
		clone[i] = r.Clone()
	}
	return clone
}
