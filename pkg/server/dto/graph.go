package dto

import (
	"errors"
	"strconv"
)

// Graph view query bounds.
const (
	MinGraphLimit = 1
	MaxGraphLimit = 5000
	MinDepth      = 1
	MaxDepth      = 3
)

// GraphViewQuery is the parsed query string of GET /api/graph.
type GraphViewQuery struct {
	NodeType     string
	ExperimentID string
	MinDegree    int
	Limit        int
}

// ParseGraphViewQuery validates the raw query-string values of the graph
// view endpoint. Empty strings mean "not set".
func ParseGraphViewQuery(nodeType, experimentID, minDegree, limit string) (GraphViewQuery, error) {
	q := GraphViewQuery{NodeType: nodeType, ExperimentID: experimentID}

	if minDegree != "" {
		v, err := strconv.Atoi(minDegree)
		if err != nil || v < 1 {
			return q, errors.New("minDegree must be an integer >= 1")
		}
		q.MinDegree = v
	}

	if limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil || v < MinGraphLimit || v > MaxGraphLimit {
			return q, errors.New("limit must be an integer between 1 and 5000")
		}
		q.Limit = v
	}

	return q, nil
}

// ParseDepth validates the max_depth parameter of the neighbors endpoint.
// An empty value defaults to 1.
func ParseDepth(raw string) (int, error) {
	if raw == "" {
		return MinDepth, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < MinDepth || v > MaxDepth {
		return 0, errors.New("max_depth must be an integer between 1 and 3")
	}
	return v, nil
}
