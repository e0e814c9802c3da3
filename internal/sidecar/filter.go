package sidecar

import "encoding/json"

// Filter is a node in a state-store query expression. The zero filter All
// matches every record; Equals and And compose field-equality clauses the way
// the sidecar's query endpoint expects them.
type Filter interface {
	json.Marshaler
}

type allFilter struct{}

// All matches every stored record.
func All() Filter { return allFilter{} }

func (allFilter) MarshalJSON() ([]byte, error) { return []byte("{}"), nil }

type eqFilter struct {
	field string
	value string
}

// Equals matches records whose field equals value.
func Equals(field, value string) Filter { return eqFilter{field: field, value: value} }

func (f eqFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]map[string]string{"EQ": {f.field: f.value}})
}

type andFilter struct {
	clauses []Filter
}

// And matches records satisfying every clause.
func And(clauses ...Filter) Filter { return andFilter{clauses: clauses} }

func (f andFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]Filter{"AND": f.clauses})
}
