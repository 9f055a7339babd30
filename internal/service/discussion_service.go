package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oguzkopan/careerrougelike-sub002/internal/config"
	"github.com/oguzkopan/careerrougelike-sub002/internal/model"
)

// Reaction is one simulated-participant utterance produced for a topic.
type Reaction struct {
	ParticipantID string
	Text          string
	Sentiment     model.Sentiment
}

// DiscussionGenerator produces simulated dialogue for a topic. It may be slow
// and may fail; the meeting service owns retries and fallback content.
type DiscussionGenerator interface {
	// OpenTopic generates the opening round of reactions when a topic is
	// introduced.
	OpenTopic(ctx context.Context, meeting *model.Meeting, topic *model.Topic) ([]Reaction, error)

	// ContinueTopic generates reactions to the player's response on the
	// current topic.
	ContinueTopic(ctx context.Context, meeting *model.Meeting, topic *model.Topic, playerText string) ([]Reaction, error)
}

// DiscussionService generates meeting dialogue via the Gemini API
type DiscussionService struct {
	config *config.AIConfig
	client *http.Client
}

// NewDiscussionService creates a new discussion service
func NewDiscussionService(cfg *config.AIConfig) *DiscussionService {
	return &DiscussionService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

func (s *DiscussionService) OpenTopic(ctx context.Context, meeting *model.Meeting, topic *model.Topic) ([]Reaction, error) {
	if !s.config.IsEnabled() {
		return s.mockReactions(meeting, topic), nil
	}

	prompt := s.buildOpeningPrompt(meeting, topic)
	response, err := s.callGemini(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return s.parseReactions(meeting, response)
}

func (s *DiscussionService) ContinueTopic(ctx context.Context, meeting *model.Meeting, topic *model.Topic, playerText string) ([]Reaction, error) {
	if !s.config.IsEnabled() {
		return s.mockReactions(meeting, topic), nil
	}

	prompt := s.buildContinuationPrompt(meeting, topic, playerText)
	response, err := s.callGemini(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return s.parseReactions(meeting, response)
}

func (s *DiscussionService) buildOpeningPrompt(meeting *model.Meeting, topic *model.Topic) string {
	var sb strings.Builder
	sb.WriteString("You are simulating a workplace meeting. Participants:\n")
	for _, p := range meeting.Participants {
		fmt.Fprintf(&sb, "- id=%s name=%s role=%s personality=%s\n", p.ID, p.Name, p.Role, p.Personality)
	}
	fmt.Fprintf(&sb, "\nThe meeting has just moved to this discussion topic:\nQuestion: %s\n", topic.Question)
	if topic.Context != "" {
		fmt.Fprintf(&sb, "Background: %s\n", topic.Context)
	}
	if len(topic.ExpectedPoints) > 0 {
		fmt.Fprintf(&sb, "Points the discussion should touch: %s\n", strings.Join(topic.ExpectedPoints, "; "))
	}
	sb.WriteString(reactionFormatInstructions)
	return sb.String()
}

func (s *DiscussionService) buildContinuationPrompt(meeting *model.Meeting, topic *model.Topic, playerText string) string {
	var sb strings.Builder
	sb.WriteString("You are simulating a workplace meeting. Participants:\n")
	for _, p := range meeting.Participants {
		fmt.Fprintf(&sb, "- id=%s name=%s role=%s personality=%s\n", p.ID, p.Name, p.Role, p.Personality)
	}
	fmt.Fprintf(&sb, "\nCurrent topic: %s\n", topic.Question)
	fmt.Fprintf(&sb, "The human attendee just said: %q\n", playerText)
	sb.WriteString("Generate the participants' replies to the human's point.\n")
	sb.WriteString(reactionFormatInstructions)
	return sb.String()
}

const reactionFormatInstructions = `
Respond with a JSON object:
{"reactions":[{"participantId":"...","text":"...","sentiment":"positive|neutral|constructive|challenging"}]}
One short reaction per participant, in speaking order.`

// parseReactions decodes the generator output and drops entries that do not
// map to the roster.
func (s *DiscussionService) parseReactions(meeting *model.Meeting, response string) ([]Reaction, error) {
	var parsed struct {
		Reactions []struct {
			ParticipantID string `json:"participantId"`
			Text          string `json:"text"`
			Sentiment     string `json:"sentiment"`
		} `json:"reactions"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("decode reactions: %w", err)
	}

	reactions := make([]Reaction, 0, len(parsed.Reactions))
	for _, r := range parsed.Reactions {
		if r.Text == "" || meeting.ParticipantByID(r.ParticipantID) == nil {
			continue
		}
		sentiment := model.Sentiment(r.Sentiment)
		if !model.ValidSentiment(sentiment) {
			sentiment = model.SentimentNeutral
		}
		reactions = append(reactions, Reaction{
			ParticipantID: r.ParticipantID,
			Text:          r.Text,
			Sentiment:     sentiment,
		})
	}

	if len(reactions) == 0 {
		return nil, fmt.Errorf("generator returned no usable reactions")
	}
	return reactions, nil
}

// mockReactions is the deterministic generator used when no API key is set.
func (s *DiscussionService) mockReactions(meeting *model.Meeting, topic *model.Topic) []Reaction {
	sentiments := []model.Sentiment{
		model.SentimentPositive,
		model.SentimentConstructive,
		model.SentimentNeutral,
		model.SentimentChallenging,
	}
	reactions := make([]Reaction, 0, len(meeting.Participants))
	for i, p := range meeting.Participants {
		reactions = append(reactions, Reaction{
			ParticipantID: p.ID,
			Text:          fmt.Sprintf("From the %s side, my take on %q is that we should keep it simple and measure as we go.", p.Role, topic.Question),
			Sentiment:     sentiments[i%len(sentiments)],
		})
	}
	return reactions
}

func (s *DiscussionService) callGemini(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("generator API error %d: %s", resp.StatusCode, string(body))
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", fmt.Errorf("empty response from generator")
}
