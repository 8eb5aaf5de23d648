package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/go-github/v48/github"
)

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GraphQL executes a raw GraphQL query against the v4 endpoint and returns
// the data document. GraphQL rate-limit violations arrive as 200 responses
// with an error list, so the error messages are inspected here in addition
// to the transport-level checks in dispatch.
func (g *Gateway) GraphQL(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	var out json.RawMessage
	err := g.call(ctx, func(ctx context.Context, c *github.Client) error {
		req, err := c.NewRequest("POST", "graphql", graphqlRequest{Query: query, Variables: variables})
		if err != nil {
			return err
		}

		var resp graphqlResponse
		if _, err := c.Do(ctx, req, &resp); err != nil {
			return err
		}

		if len(resp.Errors) > 0 {
			msgs := make([]string, 0, len(resp.Errors))
			for _, e := range resp.Errors {
				msgs = append(msgs, e.Message)
			}
			return fmt.Errorf("graphql query failed: %s", strings.Join(msgs, "; "))
		}

		out = resp.Data
		return nil
	})
	return out, err
}
