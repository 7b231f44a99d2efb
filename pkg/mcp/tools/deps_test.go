package tools

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiw/ontology-fk/pkg/models"
)

func requestWith(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestRenderObject(t *testing.T) {
	obj := models.NewObjectInstance("Rider", "r1", map[string]any{
		"rider_id": "r1", "rating": 4.5,
	})
	obj.Annotate("score:DeliveredBy", 4.5)

	t.Run("without link types", func(t *testing.T) {
		rendered := renderObject(obj)
		assert.Equal(t, "Rider", rendered.ObjectType)
		assert.Equal(t, "r1", rendered.PrimaryKey)
		assert.Nil(t, rendered.Scores)
	})

	t.Run("with link types", func(t *testing.T) {
		rendered := renderObject(obj, "DeliveredBy", "Backup")
		require.NotNil(t, rendered.Scores)
		assert.Equal(t, 4.5, rendered.Scores["DeliveredBy"])
		_, hasBackup := rendered.Scores["Backup"]
		assert.False(t, hasBackup)
	})
}

func TestOptionalArgumentHelpers(t *testing.T) {
	req := requestWith(map[string]any{
		"principal": "alice",
		"limit":     float64(5),
		"filters":   map[string]any{"region": "north"},
	})

	assert.Equal(t, "alice", getOptionalString(req, "principal"))
	assert.Equal(t, "", getOptionalString(req, "missing"))

	limit, ok := getOptionalFloat(req, "limit")
	require.True(t, ok)
	assert.Equal(t, 5.0, limit)
	_, ok = getOptionalFloat(req, "missing")
	assert.False(t, ok)

	assert.Equal(t, map[string]any{"region": "north"}, getOptionalObject(req, "filters"))
	assert.Nil(t, getOptionalObject(req, "missing"))
}

func TestParseActionChanges(t *testing.T) {
	t.Run("valid changes", func(t *testing.T) {
		req := requestWith(map[string]any{
			"changes": []any{
				map[string]any{
					"op":          "create_object",
					"object_type": "Order",
					"properties":  map[string]any{"order_id": "o1"},
				},
				map[string]any{
					"op":        "create_link",
					"link_type": "DeliveredBy",
					"source_pk": "o1",
					"target_pk": "r1",
				},
			},
		})

		changes, err := parseActionChanges(req)
		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, "create_object", changes[0].Op)
		assert.Equal(t, "o1", changes[0].Properties["order_id"])
		assert.Equal(t, "DeliveredBy", changes[1].LinkType)
	})

	t.Run("missing changes", func(t *testing.T) {
		_, err := parseActionChanges(requestWith(map[string]any{}))
		assert.Error(t, err)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := parseActionChanges(requestWith(map[string]any{"changes": "not an array"}))
		assert.Error(t, err)
	})
}
