package model

import (
	"google.golang.org/genai"

	"github.com/anime-shed/image-discovery-go/internal/logger"
)

// ExtractGroundingURLs collects web citation URLs from the response metadata
// in emission order. It never fails; anything unexpected yields an empty list.
func ExtractGroundingURLs(resp *genai.GenerateContentResponse) (urls []string) {
	urls = []string{}
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Warn("grounding metadata extraction failed")
			urls = []string{}
		}
	}()

	if resp == nil {
		return urls
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			urls = append(urls, chunk.Web.URI)
		}
	}
	return urls
}
