package uid

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Snowflake wraps a bwmarrin snowflake node.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator for the given node id (0..1023).
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("uid: snowflake node %d: %w", nodeID, err)
	}
	return &Snowflake{node: node}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
