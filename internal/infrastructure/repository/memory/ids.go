package memory

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// SnowflakeIDs derives product ids from the wall clock plus a sequence
type SnowflakeIDs struct {
	node *snowflake.Node
}

// NewSnowflakeIDs creates a generator for the given node number
func NewSnowflakeIDs(node int64) (*SnowflakeIDs, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create id node: %w", err)
	}
	return &SnowflakeIDs{node: n}, nil
}

// NextID returns the next id
func (g *SnowflakeIDs) NextID() int64 {
	return g.node.Generate().Int64()
}
