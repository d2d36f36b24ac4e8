package chat

import "context"

// Reply is an answer to one user message.
type Reply struct {
	Content   string
	ToolCalls int
	Tokens    int
}

// Agent answers every message under a fixed system prompt, letting the model
// call the client's default tools as it sees fit.
type Agent struct {
	client *Client
	system string
}

func NewAgent(client *Client, system string) *Agent {
	return &Agent{client: client, system: system}
}

func (a *Agent) Answer(ctx context.Context, message string) (Reply, error) {
	resp, err := a.client.Prompt().System(a.system).User(message).Call(ctx)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: resp.Content(), ToolCalls: resp.ToolCalls(), Tokens: resp.Tokens()}, nil
}

// Plain sends message with no system prompt. Default tools stay attached.
func (c *Client) Plain(ctx context.Context, message string) (string, error) {
	resp, err := c.Prompt().System("").User(message).Call(ctx)
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}
