package indra

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Wire records for the INDRA Network Search API. Only the fields the engine
// reads are declared.

type queryRequest struct {
	Source        string  `json:"source"`
	Target        string  `json:"target"`
	DepthLimit    int     `json:"depth_limit"`
	Weighted      string  `json:"weighted"`
	BeliefCutoff  float64 `json:"belief_cutoff"`
	KShortest     int     `json:"k_shortest"`
	FilterCurated bool    `json:"filter_curated"`
	CuratedDBOnly bool    `json:"curated_db_only"`
	FplxExpand    bool    `json:"fplx_expand"`
	Format        string  `json:"format"`
}

type queryResults struct {
	TimedOut    bool         `json:"timed_out"`
	PathResults *pathResults `json:"path_results"`
}

type pathResults struct {
	Paths pathGroups `json:"paths"`
}

// Node is a graph node as reported by the remote service.
type Node struct {
	Name       string `json:"name"`
	Namespace  string `json:"namespace"`
	Identifier string `json:"identifier"`
	Lookup     string `json:"lookup,omitempty"`
}

type wirePath struct {
	Path     []Node     `json:"path"`
	EdgeData []edgeData `json:"edge_data"`
}

type edgeData struct {
	Edge       []Node          `json:"edge"`
	Statements statementGroups `json:"statements"`
	Belief     *float64        `json:"belief"`
	DBURLEdge  string          `json:"db_url_edge"`
}

type statementSupport struct {
	SourceCounts map[string]int  `json:"source_counts"`
	Statements   []statementInfo `json:"statements"`
}

type statementInfo struct {
	StmtHash json.Number `json:"stmt_hash"`
}

// pathGroup is one entry of path_results.paths, keyed by source name.
type pathGroup struct {
	Source string
	Paths  []wirePath
}

// pathGroups decodes a JSON object keeping key order.
type pathGroups []pathGroup

func (g *pathGroups) UnmarshalJSON(data []byte) error {
	return decodeOrdered(data, func(key string, dec *json.Decoder) error {
		var paths []wirePath
		if err := dec.Decode(&paths); err != nil {
			return err
		}
		*g = append(*g, pathGroup{Source: key, Paths: paths})
		return nil
	})
}

// statementGroup is one statement type with its support.
type statementGroup struct {
	Type    string
	Support statementSupport
}

// statementGroups decodes a JSON object keeping key order; the first key is the
// primary statement type of the edge.
type statementGroups []statementGroup

func (g *statementGroups) UnmarshalJSON(data []byte) error {
	return decodeOrdered(data, func(key string, dec *json.Decoder) error {
		var s statementSupport
		if err := dec.Decode(&s); err != nil {
			return err
		}
		*g = append(*g, statementGroup{Type: key, Support: s})
		return nil
	})
}

// decodeOrdered walks the members of a JSON object in document order. null
// decodes to nothing.
func decodeOrdered(data []byte, member func(key string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", keyTok)
		}
		if err := member(key, dec); err != nil {
			return fmt.Errorf("member %q: %w", key, err)
		}
	}

	_, err = dec.Token()
	return err
}
