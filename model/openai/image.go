package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/contentmesh/model"
	"github.com/openai/openai-go"
)

// ImageOptions configure the OpenAI image model adapter.
type ImageOptions struct {
	Model   string
	Size    string
	Quality string
}

// ImageModel wraps the OpenAI Images API behind the generic model.ImageModel interface.
type ImageModel struct {
	client *openai.Client
	opts   ImageOptions
}

// NewImageModel creates a new OpenAI image model using the official client
func NewImageModel(optFns ...func(o *ImageOptions)) *ImageModel {
	client := openai.NewClient()
	return NewImageModelFromClient(&client, optFns...)
}

// NewImageModelFromClient creates a new OpenAI image model from an existing client
func NewImageModelFromClient(client *openai.Client, optFns ...func(o *ImageOptions)) *ImageModel {
	opts := ImageOptions{
		Model:   openai.ImageModelDallE3,
		Size:    "1024x1024",
		Quality: "standard",
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ImageModel{client: client, opts: opts}
}

// GenerateImage implements model.ImageModel and returns the generated image URLs.
func (m *ImageModel) GenerateImage(ctx context.Context, req model.ImageRequest) ([]string, error) {
	size := req.Size
	if size == "" {
		size = m.opts.Size
	}
	quality := req.Quality
	if quality == "" {
		quality = m.opts.Quality
	}
	count := req.Count
	if count <= 0 {
		count = 1
	}

	resp, err := m.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         req.Prompt,
		Model:          m.opts.Model,
		N:              openai.Int(int64(count)),
		Size:           openai.ImageGenerateParamsSize(size),
		Quality:        openai.ImageGenerateParamsQuality(quality),
		ResponseFormat: openai.ImageGenerateParamsResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image api error: %w", err)
	}

	urls := make([]string, 0, len(resp.Data))
	for _, img := range resp.Data {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no image urls returned")
	}
	return urls, nil
}

// Info returns metadata describing this OpenAI image model implementation.
func (m *ImageModel) Info() model.Info {
	return model.Info{
		Name:     m.opts.Model,
		Provider: "openai",
	}
}
