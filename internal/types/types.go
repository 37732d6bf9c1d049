package types

import "errors"

const (
	TargetOwner    = "owner"
	TargetCustomer = "customer"
	TargetBoth     = "both"
)

// ErrInvalidRequest means the request carried neither a prompt nor a
// reference image. Surfaced as HTTP 400 and never retried.
var ErrInvalidRequest = errors.New("either a prompt or a reference image is required")

// GenerateParams is the normalized generation request. Older front ends
// spell the reference image as "ref", "image", "image_url" or "reference";
// Normalize folds those aliases into ReferenceImage.
type GenerateParams struct {
	ID             string           `json:"id,omitempty"`
	Prompt         string           `json:"prompt"`
	ReferenceImage string           `json:"reference_image,omitempty"`
	Target         string           `json:"target,omitempty"`
	Params         *GenerationKnobs `json:"parameters,omitempty"`
	WebhookUrl     string           `json:"webhook_url,omitempty"`

	// Legacy aliases, accepted on input only.
	Ref      string `json:"ref,omitempty"`
	Image    string `json:"image,omitempty"`
	ImageUrl string `json:"image_url,omitempty"`
	Refer    string `json:"reference,omitempty"`
}

type GenerationKnobs struct {
	Size     string  `json:"size,omitempty"`
	Steps    int     `json:"steps,omitempty"`
	Guidance float64 `json:"guidance,omitempty"`
	Strength float64 `json:"strength,omitempty"`
	Seed     int64   `json:"seed,omitempty"`
}

// Normalize resolves field aliases and validates the request. The first
// non-empty alias wins, in the order the front ends historically used them.
func (p *GenerateParams) Normalize() error {
	if p.ReferenceImage == "" {
		for _, alias := range []string{p.Ref, p.Image, p.ImageUrl, p.Refer} {
			if alias != "" {
				p.ReferenceImage = alias
				break
			}
		}
	}
	p.Ref, p.Image, p.ImageUrl, p.Refer = "", "", "", ""

	if p.Target == "" {
		p.Target = TargetBoth
	}

	if p.Prompt == "" && p.ReferenceImage == "" {
		return ErrInvalidRequest
	}

	return nil
}

// IsEcho reports whether the request should short-circuit: a reference image
// with no prompt is returned unchanged as both outputs, at zero provider
// cost.
func (p *GenerateParams) IsEcho() bool {
	return p.Prompt == "" && p.ReferenceImage != ""
}

func (p *GenerateParams) Knobs() GenerationKnobs {
	if p.Params == nil {
		return GenerationKnobs{}
	}
	return *p.Params
}

// Provenance records which provider and model actually produced each image.
type Provenance struct {
	Owner    string `json:"owner,omitempty"`
	Customer string `json:"customer,omitempty"`
}

// GenerationResult is constructed once per request from normalized provider
// output. At least one of Owner/Customer is set on success.
type GenerationResult struct {
	Owner      string     `json:"owner,omitempty"`
	Customer   string     `json:"customer,omitempty"`
	Provenance Provenance `json:"provenance"`
}

type GenerationResponse struct {
	OK         bool       `json:"ok"`
	ID         string     `json:"id,omitempty"`
	Status     string     `json:"status,omitempty"`
	Owner      string     `json:"owner,omitempty"`
	Customer   string     `json:"customer,omitempty"`
	Provenance Provenance `json:"provenance"`
	Error      string     `json:"error,omitempty"`
}

type UploadResponse struct {
	Url string `json:"url"`
}
