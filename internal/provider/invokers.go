package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/illegalcall/inkgen/internal/apperror"
)

// Input carries everything an operation may send to the provider. Each
// invoker reads only the fields it needs.
type Input struct {
	Prompt      string
	BodyImage   string
	TattooImage string
}

// Invoker performs one external operation and returns image references.
type Invoker interface {
	Invoke(ctx context.Context, in Input) ([]string, error)
}

// Preset fixes the provider target and prompt shaping of a generation mode.
type Preset struct {
	Target Target
	Input  func(prompt string) map[string]any
}

var FlashPreset = Preset{
	Target: Target{Model: "black-forest-labs/flux-1.1-pro"},
	Input: func(prompt string) map[string]any {
		return map[string]any{
			"prompt": "tattoo flash design, " + prompt + ", white background, vector style, clean lines, " +
				"black ink, minimalist, high contrast, no shading, stencil style",
			"aspect_ratio":     "1:1",
			"output_format":    "jpg",
			"output_quality":   100,
			"safety_tolerance": 5,
		}
	},
}

var RealisticPreset = Preset{
	Target: Target{Version: "8515c238222fa529763ec99b4ba1fa9d32ab5d6ebc82b4281de99e4dbdcec943"},
	Input: func(prompt string) map[string]any {
		return map[string]any{
			"prompt": "photo of a tattoo of " + prompt + ", fresh ink style, on skin, natural skin tone, " +
				"highly detailed, sharp focus, 8k, realistic skin texture, hyperrealistic, " +
				"professional photography, natural lighting",
			"negative_prompt": "oversaturated, orange skin, red skin, excessive redness, sunburn looking, " +
				"perfect skin, ugly, broken, distorted, drawing, painting, illustration, cartoon, anime, " +
				"blurry, low quality",
			"width":                  1024,
			"height":                 1024,
			"scheduler":              "K_EULER",
			"lora_scale":             0.6,
			"num_inference_steps":    25,
			"refine":                 "no_refiner",
			"guidance_scale":         7.5,
			"apply_watermark":        false,
			"disable_safety_checker": true,
		}
	},
}

// TextToImage turns a prompt into one or more tattoo images.
type TextToImage struct {
	predictor Predictor
	preset    Preset
}

func NewTextToImage(predictor Predictor, preset Preset) *TextToImage {
	return &TextToImage{predictor: predictor, preset: preset}
}

func (g *TextToImage) Invoke(ctx context.Context, in Input) ([]string, error) {
	out, err := g.predictor.Run(ctx, g.preset.Target, g.preset.Input(in.Prompt))
	if err != nil {
		return nil, err
	}
	uris := out.URIs()
	if len(uris) == 0 {
		return nil, apperror.GenerationFailed("prediction succeeded without image output")
	}
	return uris, nil
}

const compositePrompt = `Professional Tattoo Application. WITHOUT THE WHITE PARTS OF THE TATTOO DESIGN.
Action: Morph and wrap the provided tattoo design onto the person's skin in the first image.
Physics: The tattoo must follow the 3D curvature of the body (cylindrical wrapping around arm/body). It must distort naturally with the muscles.
Texture: Apply 'multiply' blend mode. The ink must look settled INTO the pores of the skin, not floating on top. slightly faded black ink.
Constraints: Respect anatomical boundaries. Do NOT allow the tattoo to bleed into the background or air. Do NOT cover the face.
Quality: 8k photorealistic, raw photo style`

const compositeNegativePrompt = "white background, paper background, sticker border, floating image, cartoon, " +
	"low quality, blur, watermark, text, deformed body, extra limbs, changed background"

// Compositor places a tattoo design onto a body photo.
type Compositor struct {
	predictor Predictor
	target    Target
}

func NewCompositor(predictor Predictor) *Compositor {
	return &Compositor{predictor: predictor, target: Target{Model: "bytedance/seedream-4"}}
}

func (c *Compositor) Invoke(ctx context.Context, in Input) ([]string, error) {
	out, err := c.predictor.Run(ctx, c.target, map[string]any{
		"prompt":                      compositePrompt,
		"image_input":                 []string{in.BodyImage, in.TattooImage},
		"size":                        "2K",
		"aspect_ratio":                "match_input_image",
		"sequential_image_generation": "disabled",
		"max_images":                  1,
		"enhance_prompt":              true,
		"negative_prompt":             compositeNegativePrompt,
	})
	if err != nil {
		return nil, err
	}
	uris := out.URIs()
	if len(uris) == 0 {
		return nil, apperror.GenerationFailed("composite succeeded without image output")
	}
	return uris[:1], nil
}

const expertSystemPrompt = `You are a professional tattoo artist with 15 years of experience.
Your name is "Master Tattufy".

YOUR RULES:
1. Answer in the language the user writes in.
2. Be relaxed but very professional and responsible.
3. Give advice about design, pain, healing, aftercare and biosafety.
4. If the user asks for a drawing, give ideas and describe them, but remind them to use the image generator.
5. Never recommend medical procedures, only basic tattoo care (cleaning, ointment, etc).
6. Keep answers short and direct (at most 3 paragraphs).`

// ChatExpert answers tattoo questions with a hosted language model.
type ChatExpert struct {
	predictor Predictor
	target    Target
}

func NewChatExpert(predictor Predictor) *ChatExpert {
	return &ChatExpert{predictor: predictor, target: Target{Model: "meta/meta-llama-3-8b-instruct"}}
}

// Reply returns the expert's answer to message.
func (e *ChatExpert) Reply(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperror.InvalidInput("message is required")
	}

	prompt := fmt.Sprintf("<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n%s\n"+
		"<|eot_id|><|start_header_id|>user<|end_header_id|>\n%s\n"+
		"<|eot_id|><|start_header_id|>assistant<|end_header_id|>\n", expertSystemPrompt, message)

	out, err := e.predictor.Run(ctx, e.target, map[string]any{
		"prompt":      prompt,
		"max_tokens":  500,
		"temperature": 0.7,
		"top_p":       0.9,
	})
	if errors.Is(err, apperror.ErrRateLimited) {
		return "", err
	}
	if err != nil {
		return "", apperror.ChatFailed(err.Error())
	}

	reply := strings.TrimSpace(out.Text())
	if reply == "" {
		return "", apperror.ChatFailed("chat model returned no text")
	}
	return reply, nil
}
