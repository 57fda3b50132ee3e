// Package mutation defines the structural-change records a host delivers
// to an advisor session. A live browser host, a replay script and tests
// all speak this format.
package mutation

import (
	"encoding/json"
	"fmt"
)

// Op is the type of tree mutation.
type Op string

const (
	OpInsert  Op = "insert"   // HTML appended under the target
	OpRemove  Op = "remove"   // target detached
	OpAttr    Op = "attr"     // attribute set on the target
	OpAttrDel Op = "attr_del" // attribute removed from the target
)

// Valid reports whether op is known.
func (op Op) Valid() bool {
	switch op {
	case OpInsert, OpRemove, OpAttr, OpAttrDel:
		return true
	default:
		return false
	}
}

// Record is a single mutation. The target is addressed by XPath or, when
// XPath is empty, by CSS selector (first match).
type Record struct {
	Op       Op     `json:"op" yaml:"op"`
	XPath    string `json:"xpath,omitempty" yaml:"xpath,omitempty"`
	Selector string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Value    string `json:"value,omitempty" yaml:"value,omitempty"`
	HTML     string `json:"html,omitempty" yaml:"html,omitempty"`
}

// Target returns the address of the record for logging.
func (r Record) Target() string {
	if r.XPath != "" {
		return r.XPath
	}
	return r.Selector
}

// Validate checks that the record is applicable.
func (r Record) Validate() error {
	if !r.Op.Valid() {
		return fmt.Errorf("unknown mutation op %q", r.Op)
	}
	if r.XPath == "" && r.Selector == "" {
		return fmt.Errorf("%s mutation without target", r.Op)
	}
	if (r.Op == OpAttr || r.Op == OpAttrDel) && r.Name == "" {
		return fmt.Errorf("%s mutation without attribute name", r.Op)
	}
	return nil
}

// Batch is all mutations delivered by one host notification. Seq
// increases monotonically per page; zero means unsequenced.
type Batch struct {
	Seq       uint64   `json:"seq"`
	PageURL   string   `json:"page_url,omitempty"`
	Records   []Record `json:"records"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// Insert is shorthand for an insert record addressed by XPath.
func Insert(parentXPath, html string) Record {
	return Record{Op: OpInsert, XPath: parentXPath, HTML: html}
}

// Remove is shorthand for a remove record addressed by XPath.
func Remove(xpath string) Record {
	return Record{Op: OpRemove, XPath: xpath}
}

// MarshalBatch serialises a Batch to JSON.
func MarshalBatch(b *Batch) ([]byte, error) {
	return json.Marshal(b)
}

// UnmarshalBatch deserialises a Batch from JSON.
func UnmarshalBatch(data []byte) (*Batch, error) {
	var b Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
