package chat

import (
	"context"
	"time"
)

// Generator produces an assistant reply as a sequence of tokens.
type Generator interface {
	// Stream calls emit once per token. It stops and returns ctx.Err() as soon
	// as ctx is cancelled, and returns emit's error if emit fails.
	Stream(ctx context.Context, prompt string, emit func(token string) error) error
}

// Prompt is a canned starter prompt offered by the assistant.
type Prompt struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// QuickPrompts are the starter prompts shown beside the conversation.
var QuickPrompts = []Prompt{
	{ID: "comp-ideas", Label: "Competition ideas", Text: "Brainstorm FBLA competition ideas tailored for our chapter."},
	{ID: "event-plan", Label: "Plan a meeting", Text: "Draft a 45-minute meeting agenda for new members."},
	{ID: "email", Label: "Polish an email", Text: "Improve this outreach email to a sponsor for Hack Forsyth."},
	{ID: "rules", Label: "Rules Q&A", Text: "Answer top questions about FBLA membership, dues, and timelines."},
}

// Greeting is the assistant's opening message.
const Greeting = "Hey! I'm SparkAI. Ask me anything about FBLA, competitions, events, or chapter ops. Try a quick prompt to get started."

var simulatedReply = []string{
	"Here's a polished outline to get you rolling.\n\n",
	"1) Kickoff & icebreaker (5 min)\n",
	"2) What is FBLA? (10 min)\n",
	"3) Competition tracks (10 min)\n",
	"4) Team breakout & next steps (15 min)\n",
}

// SimulatedGenerator replays a fixed reply at a fixed pace. It stands in for
// a real inference backend.
type SimulatedGenerator struct {
	Interval time.Duration
	Tokens   []string
}

// NewSimulatedGenerator returns a generator emitting the canned reply every interval.
func NewSimulatedGenerator(interval time.Duration) *SimulatedGenerator {
	return &SimulatedGenerator{Interval: interval, Tokens: simulatedReply}
}

// Stream implements Generator. The prompt is ignored.
func (g *SimulatedGenerator) Stream(ctx context.Context, _ string, emit func(token string) error) error {
	timer := time.NewTimer(g.Interval)
	defer timer.Stop()

	for i, tok := range g.Tokens {
		if i > 0 {
			timer.Reset(g.Interval)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
		if err := emit(tok); err != nil {
			return err
		}
	}
	return nil
}
