package supply

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"daily-trivia-service/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Endpoint describes one external question source.
type Endpoint struct {
	Name    string
	URL     string
	Shape   string // "opentdb", "list", or "wrapped"
	Timeout time.Duration
}

// Gateway fetches raw question candidates from every configured provider.
// Providers are unreliable: a timeout or non-200 yields zero candidates
// from that provider and never fails the fetch as a whole.
type Gateway struct {
	client    *http.Client
	endpoints []Endpoint

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGateway(endpoints []Endpoint) *Gateway {
	return &Gateway{
		client:    &http.Client{},
		endpoints: endpoints,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchAll queries every provider concurrently and pools their candidates.
func (g *Gateway) FetchAll(ctx context.Context) []domain.Question {
	results := make([][]domain.Question, len(g.endpoints))

	eg, ctx := errgroup.WithContext(ctx)
	for i, ep := range g.endpoints {
		i, ep := i, ep
		eg.Go(func() error {
			candidates, err := g.fetch(ctx, ep)
			if err != nil {
				log.Printf("provider %s yielded no candidates: %v", ep.Name, err)
				return nil
			}
			results[i] = candidates
			return nil
		})
	}
	_ = eg.Wait()

	var pooled []domain.Question
	for _, candidates := range results {
		pooled = append(pooled, candidates...)
	}
	return pooled
}

func (g *Gateway) fetch(ctx context.Context, ep Endpoint) ([]domain.Question, error) {
	timeout := ep.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ep.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	candidates, err := decodeCandidates(ep.Shape, json.NewDecoder(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", ep.Shape, err)
	}
	for i := range candidates {
		candidates[i].Source = ep.Name
		g.shuffleOptions(candidates[i].Options)
	}
	return candidates, nil
}

func (g *Gateway) shuffleOptions(options []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
}

// opentdbResponse matches the Open Trivia DB envelope. Texts arrive
// HTML-escaped.
type opentdbResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
		Difficulty       string   `json:"difficulty"`
	} `json:"results"`
}

// listItem matches providers that return a bare JSON array.
type listItem struct {
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Options    []string `json:"options"`
	Difficulty string   `json:"difficulty"`
}

// wrappedResponse matches providers that nest questions under a key with
// separate correct/incorrect answers.
type wrappedResponse struct {
	Questions []struct {
		Text             string   `json:"text"`
		CorrectAnswer    string   `json:"correctAnswer"`
		IncorrectAnswers []string `json:"incorrectAnswers"`
		Difficulty       string   `json:"difficulty"`
	} `json:"questions"`
}

// decodeCandidates is the single normalization point from provider shapes
// into the Question type.
func decodeCandidates(shape string, dec *json.Decoder) ([]domain.Question, error) {
	switch shape {
	case "opentdb":
		var body opentdbResponse
		if err := dec.Decode(&body); err != nil {
			return nil, err
		}
		if body.ResponseCode != 0 {
			return nil, fmt.Errorf("response code %d", body.ResponseCode)
		}
		out := make([]domain.Question, 0, len(body.Results))
		for _, r := range body.Results {
			answer := html.UnescapeString(r.CorrectAnswer)
			options := []string{answer}
			for _, inc := range r.IncorrectAnswers {
				options = append(options, html.UnescapeString(inc))
			}
			out = append(out, domain.Question{
				Text:       html.UnescapeString(r.Question),
				Answer:     answer,
				Options:    options,
				Difficulty: parseDifficulty(r.Difficulty),
			})
		}
		return out, nil

	case "list":
		var body []listItem
		if err := dec.Decode(&body); err != nil {
			return nil, err
		}
		out := make([]domain.Question, 0, len(body))
		for _, item := range body {
			out = append(out, domain.Question{
				Text:       item.Question,
				Answer:     item.Answer,
				Options:    append([]string(nil), item.Options...),
				Difficulty: parseDifficulty(item.Difficulty),
			})
		}
		return out, nil

	case "wrapped":
		var body wrappedResponse
		if err := dec.Decode(&body); err != nil {
			return nil, err
		}
		out := make([]domain.Question, 0, len(body.Questions))
		for _, q := range body.Questions {
			options := append([]string{q.CorrectAnswer}, q.IncorrectAnswers...)
			out = append(out, domain.Question{
				Text:       q.Text,
				Answer:     q.CorrectAnswer,
				Options:    options,
				Difficulty: parseDifficulty(q.Difficulty),
			})
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown provider shape %q", shape)
	}
}

func parseDifficulty(raw string) domain.Difficulty {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "easy":
		return domain.DifficultyEasy
	case "hard":
		return domain.DifficultyHard
	default:
		return domain.DifficultyMedium
	}
}
