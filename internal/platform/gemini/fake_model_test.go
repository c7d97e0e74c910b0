package gemini_test

import (
	"context"
	"sync"

	"google.golang.org/genai"
)

type call struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type reply struct {
	resp *genai.GenerateContentResponse
	err  error
}

// fakeModel answers GenerateContent calls from a scripted list. The last
// reply repeats once the list is exhausted.
type fakeModel struct {
	mu      sync.Mutex
	replies []reply
	calls   []call
}

func (f *fakeModel) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{model: model, contents: contents, config: config})
	if len(f.replies) == 0 {
		return nil, nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r.resp, r.err
}

func (f *fakeModel) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func textReply(text string) reply {
	return reply{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		}},
	}}
}

func errReply(err error) reply {
	return reply{err: err}
}
