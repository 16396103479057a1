package translator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const myMemoryBaseURL = "https://api.mymemory.translated.net"

// MyMemoryService calls the free MyMemory API. An email raises the daily
// quota.
type MyMemoryService struct {
	email   string
	baseURL string
	client  *http.Client
}

func NewMyMemoryService(email string) *MyMemoryService {
	return &MyMemoryService{
		email:   email,
		baseURL: myMemoryBaseURL,
		client:  newHTTPClient(30 * time.Second),
	}
}

func (s *MyMemoryService) Name() string {
	return "mymemory"
}

type myMemoryReply struct {
	ResponseData struct {
		TranslatedText string  `json:"translatedText"`
		Match          float64 `json:"match"`
	} `json:"responseData"`
	ResponseStatus  int    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

func (s *MyMemoryService) Translate(ctx context.Context, cfg ServiceConfig, req TranslateRequest) (*ServiceResult, error) {
	result, done := timed(s.Name())

	q := url.Values{
		"q":        {req.Text},
		"langpair": {req.SourceLang + "|" + req.TargetLang},
	}
	if s.email != "" {
		q.Set("de", s.email)
	}

	var reply myMemoryReply
	if err := call(ctx, s.client, http.MethodGet, s.baseURL+"/get?"+q.Encode(), nil, nil, &reply); err != nil {
		return done(err)
	}
	// The API reports quota and validation problems in the body with HTTP 200.
	if reply.ResponseStatus != http.StatusOK {
		return done(fmt.Errorf("API error: %s (%d)", reply.ResponseDetails, reply.ResponseStatus))
	}

	result.TranslatedText = reply.ResponseData.TranslatedText
	result.Confidence = min(max(reply.ResponseData.Match, 0), 1)
	return done(nil)
}

func (s *MyMemoryService) IsAvailable(ctx context.Context) error {
	return nil
}

func (s *MyMemoryService) SupportedLanguages(ctx context.Context) ([]string, error) {
	return append([]string(nil), supported...), nil
}
