// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/northbound/hive-rag/internal/query"
)

var (
	greetingPattern    = regexp.MustCompile(`(?i)^\s*(hi|hello|hey|good (morning|afternoon|evening))\b`)
	goodbyePattern     = regexp.MustCompile(`(?i)\b(bye|goodbye|see you|that's all|thanks,? bye)\b`)
	helpPattern        = regexp.MustCompile(`(?i)\b(help|what can you do|how does this work)\b`)
	comparisonPattern  = regexp.MustCompile(`(?i)\b(vs\.?|versus|difference between|compare)\b`)
	explanationPattern = regexp.MustCompile(`(?i)^\s*(why|explain|how does)\b`)
	questionPattern    = regexp.MustCompile(`(?i)^\s*(what|who|where|when|which)\b|\?\s*$`)

	stopwords = map[string]bool{
		"the": true, "a": true, "an": true, "is": true, "are": true, "was": true, "were": true,
		"what": true, "which": true, "who": true, "how": true, "why": true, "when": true, "where": true,
		"of": true, "in": true, "on": true, "at": true, "to": true, "for": true, "and": true, "or": true,
		"but": true, "do": true, "does": true, "did": true, "can": true, "could": true, "would": true,
		"should": true, "will": true, "with": true, "about": true, "please": true, "you": true, "your": true,
	}
)

// Summary is end_conversation's return shape.
type Summary struct {
	Topics            []string `json:"topics"`
	UserMessageCount  int      `json:"user_message_count"`
	TurnCount         int      `json:"turn_count"`
}

// TurnResult is send_message's return shape.
type TurnResult struct {
	Response        string         `json:"response"`
	TurnCount        int           `json:"turn_count"`
	CurrentPhase     Phase         `json:"current_phase"`
	ConfidenceScore  float64       `json:"confidence_score"`
	Sources          []SearchResult `json:"sources,omitempty"`
}

// Engine is component C12, the turn graph over persisted state.
type Engine struct {
	store       *Store
	queryEngine *query.Engine
}

// New constructs the conversation engine. queryEngine may be nil — the
// search node then always falls through to the no-knowledge template.
func New(store *Store, queryEngine *query.Engine) *Engine {
	return &Engine{store: store, queryEngine: queryEngine}
}

// StartConversation creates or loads a thread and runs the greet node.
func (e *Engine) StartConversation(ctx context.Context, threadID string) (TurnResult, error) {
	if threadID == "" {
		threadID = uuid.NewString()
	}
	unlock := e.store.lockThread(threadID)
	defer unlock()

	st, _ := e.store.getOrCreate(threadID)
	st.CurrentPhase = PhaseGreeting

	greeting := "Hello! I'm here to help answer questions about your documents. What would you like to know?"
	st.appendMessage("assistant", greeting)
	st.CurrentPhase = PhaseUnderstanding

	if err := e.store.save(); err != nil {
		st.HasErrors = true
		st.ErrorMessages = append(st.ErrorMessages, err.Error())
	}

	return TurnResult{
		Response:        greeting,
		TurnCount:       st.TurnCount,
		CurrentPhase:    st.CurrentPhase,
		ConfidenceScore: 1.0,
	}, nil
}

// SendMessage runs one full turn: understand -> search|respond|end ->
// respond|clarify, always appending an assistant message and never
// raising to the caller (errors are recorded on the state instead).
func (e *Engine) SendMessage(ctx context.Context, threadID, message string) (TurnResult, error) {
	unlock := e.store.lockThread(threadID)
	defer unlock()

	st, existed := e.store.getOrCreate(threadID)
	if !existed {
		st.CurrentPhase = PhaseUnderstanding
	}

	st.appendMessage("user", message)
	st.OriginalQuery = message

	intent := classifyIntent(message)
	st.UserIntent = intent
	st.Keywords = extractKeywords(message)
	st.ProcessedQuery = processedQuery(message, st.TopicsDiscussed)
	st.CurrentPhase = PhaseUnderstanding

	switch {
	case intent == "goodbye":
		return e.runEndTurn(st), nil
	case intent == "greeting" || intent == "help":
		return e.runRespondTurn(st, nil, ""), nil
	default:
		st.CurrentPhase = PhaseSearching
		results, generated, requiresClarification := e.runSearchNode(ctx, st)
		if requiresClarification {
			return e.runClarifyTurn(st), nil
		}
		return e.runRespondTurn(st, results, generated), nil
	}
}

// runSearchNode calls C11 with top_k=5. A query engine error or a
// response with no sources goes on to respond: only explicit search-side
// ambiguity (RequiresClarification) sends the turn to clarify, never a
// bare absence of results.
func (e *Engine) runSearchNode(ctx context.Context, st *State) ([]SearchResult, string, bool) {
	if e.queryEngine == nil {
		st.SearchResults = nil
		return nil, "", false
	}

	resp, err := e.queryEngine.ProcessQuery(ctx, st.ProcessedQuery, 5)
	if err != nil {
		st.SearchResults = nil
		return nil, "", false
	}
	if resp.RequiresClarification {
		st.SearchResults = nil
		st.ContextChunks = nil
		st.ClarificationQuestions = []string{
			fmt.Sprintf("I couldn't find a confident match for %q in the knowledge base. Could you rephrase the question or add more detail?", st.OriginalQuery),
		}
		return nil, "", true
	}
	if len(resp.Sources) == 0 {
		st.SearchResults = nil
		return nil, "", false
	}

	results := make([]SearchResult, len(resp.Sources))
	for i, src := range resp.Sources {
		results[i] = SearchResult{Text: src.TextPreview, DocID: src.DocID, Score: src.SimilarityScore, Metadata: src.Metadata}
	}
	st.SearchResults = results
	st.ContextChunks = make([]string, len(results))
	for i, r := range results {
		st.ContextChunks[i] = r.Text
	}
	return results, resp.Response, false
}

// runClarifyTurn asks the user for more detail and parks the thread in
// PhaseClarifying; the next SendMessage call re-enters understand since
// dispatch always resets CurrentPhase to PhaseUnderstanding up front.
func (e *Engine) runClarifyTurn(st *State) TurnResult {
	clarification := "I'm not sure I understand. Could you rephrase your question or provide more details?"
	if len(st.ClarificationQuestions) > 0 {
		clarification = st.ClarificationQuestions[0]
	}

	st.GeneratedResponse = clarification
	st.ResponseConfidence = 0.4
	st.RequiresClarification = false
	st.CurrentPhase = PhaseClarifying
	st.appendMessage("assistant", clarification)

	if err := e.store.save(); err != nil {
		st.HasErrors = true
		st.ErrorMessages = append(st.ErrorMessages, err.Error())
	}

	return TurnResult{
		Response:        clarification,
		TurnCount:       st.TurnCount,
		CurrentPhase:    PhaseClarifying,
		ConfidenceScore: 0.4,
	}
}

// runRespondTurn composes the assistant reply, derives suggestions and
// related topics, appends the message, and persists.
func (e *Engine) runRespondTurn(st *State, results []SearchResult, generated string) TurnResult {
	st.CurrentPhase = PhaseResponding

	var response string
	confidence := 0.5
	switch {
	case st.UserIntent == "greeting":
		response = "Hi there! What would you like to know?"
		confidence = 1.0
	case st.UserIntent == "help":
		response = "Ask me anything about the documents I've ingested, and I'll do my best to answer with supporting sources."
		confidence = 1.0
	case generated != "":
		response = generated
		confidence = 0.85
	case len(results) > 0:
		response = composeFromSources(st.OriginalQuery, results)
		confidence = 0.7
	default:
		response = "I don't have enough information in my knowledge base to answer that confidently."
		confidence = 0.3
	}

	st.GeneratedResponse = response
	st.ResponseConfidence = confidence
	st.SuggestedQuestions = suggestedQuestions(st.Keywords)
	st.TopicsDiscussed = updateTopics(st.TopicsDiscussed, relatedTopics(results))

	st.appendMessage("assistant", response)
	st.CurrentPhase = PhaseUnderstanding // respond -> END; next message re-enters at understand

	if err := e.store.save(); err != nil {
		st.HasErrors = true
		st.ErrorMessages = append(st.ErrorMessages, err.Error())
	}

	return TurnResult{
		Response:        response,
		TurnCount:       st.TurnCount,
		CurrentPhase:    PhaseResponding,
		ConfidenceScore: confidence,
		Sources:         results,
	}
}

// runEndTurn runs the goodbye turn triggered by goodbye intent mid-
// conversation (distinct from the explicit end_conversation operation).
func (e *Engine) runEndTurn(st *State) TurnResult {
	st.CurrentPhase = PhaseEnding
	farewell := "Goodbye! Feel free to come back if you have more questions."
	st.appendMessage("assistant", farewell)
	st.Ended = true

	if err := e.store.save(); err != nil {
		st.HasErrors = true
		st.ErrorMessages = append(st.ErrorMessages, err.Error())
	}

	return TurnResult{
		Response:        farewell,
		TurnCount:       st.TurnCount,
		CurrentPhase:    PhaseEnding,
		ConfidenceScore: 1.0,
	}
}

// EndConversation runs a goodbye turn and produces a summary.
func (e *Engine) EndConversation(ctx context.Context, threadID string) (Summary, error) {
	unlock := e.store.lockThread(threadID)
	defer unlock()

	st, ok := e.store.get(threadID)
	if !ok {
		st, _ = e.store.getOrCreate(threadID)
	}

	farewell := "Goodbye! Thanks for chatting."
	st.appendMessage("assistant", farewell)
	st.CurrentPhase = PhaseEnding
	st.Ended = true

	userCount := 0
	for _, m := range st.Messages {
		if m.Role == "user" {
			userCount++
		}
	}

	if err := e.store.save(); err != nil {
		st.HasErrors = true
		st.ErrorMessages = append(st.ErrorMessages, err.Error())
	}

	return Summary{
		Topics:           st.TopicsDiscussed,
		UserMessageCount: userCount,
		TurnCount:        st.TurnCount,
	}, nil
}

// GetHistory returns up to maxMessages most recent messages (0 = all).
func (e *Engine) GetHistory(threadID string, maxMessages int) ([]Message, int, Phase, bool) {
	st, ok := e.store.get(threadID)
	if !ok {
		return nil, 0, "", false
	}
	msgs := st.Messages
	if maxMessages > 0 && len(msgs) > maxMessages {
		msgs = msgs[len(msgs)-maxMessages:]
	}
	return msgs, st.TurnCount, st.CurrentPhase, true
}

func classifyIntent(message string) string {
	switch {
	case greetingPattern.MatchString(message):
		return "greeting"
	case goodbyePattern.MatchString(message):
		return "goodbye"
	case helpPattern.MatchString(message):
		return "help"
	case comparisonPattern.MatchString(message):
		return "comparison"
	case explanationPattern.MatchString(message):
		return "explanation"
	case questionPattern.MatchString(message):
		return "question"
	default:
		return "information_seeking"
	}
}

func extractKeywords(message string) []string {
	fields := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	var keywords []string
	seen := map[string]bool{}
	for _, f := range fields {
		if len(f) < 3 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		keywords = append(keywords, f)
	}
	return keywords
}

func processedQuery(message string, topics []string) string {
	if len(topics) == 0 {
		return message
	}
	recent := topics
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	return message + " " + strings.Join(recent, " ")
}

func composeFromSources(query string, results []SearchResult) string {
	if len(results) == 0 {
		return "I couldn't find relevant information to answer that."
	}
	var b strings.Builder
	b.WriteString("Based on what I found: ")
	limit := len(results)
	if limit > 3 {
		limit = 3
	}
	for i := 0; i < limit; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(results[i].Text)
	}
	return b.String()
}

func suggestedQuestions(keywords []string) []string {
	var out []string
	templates := []string{"Can you tell me more about %s?", "What else is related to %s?", "How does %s work?"}
	for i, kw := range keywords {
		if i >= len(templates) {
			break
		}
		out = append(out, fmt.Sprintf(templates[i], kw))
	}
	return out
}

func relatedTopics(results []SearchResult) []string {
	var topics []string
	seen := map[string]bool{}
	for _, r := range results {
		if r.DocID == "" || seen[r.DocID] {
			continue
		}
		seen[r.DocID] = true
		topics = append(topics, r.DocID)
		if len(topics) >= 5 {
			break
		}
	}
	return topics
}

func updateTopics(existing, fresh []string) []string {
	seen := map[string]bool{}
	var merged []string
	for _, t := range existing {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	for _, t := range fresh {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	return merged
}
