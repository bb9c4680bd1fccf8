package server

import (
	"strings"

	gmailv1 "google.golang.org/api/gmail/v1"

	"mailtothings/internal/addon"
)

const addOnName = "Mail to Things"

// Deployment is the add-on deployment descriptor that wires Gmail triggers to
// the handler endpoints.
type Deployment struct {
	OAuthScopes []string `json:"oauthScopes"`
	AddOns      AddOns   `json:"addOns"`
}

type AddOns struct {
	Common CommonAddOn `json:"common"`
	Gmail  GmailAddOn  `json:"gmail"`
}

type CommonAddOn struct {
	Name             string            `json:"name"`
	LogoURL          string            `json:"logoUrl,omitempty"`
	UniversalActions []UniversalAction `json:"universalActions,omitempty"`
}

type UniversalAction struct {
	Label       string `json:"label"`
	RunFunction string `json:"runFunction"`
}

type GmailAddOn struct {
	ContextualTriggers []ContextualTrigger `json:"contextualTriggers"`
}

type ContextualTrigger struct {
	Unconditional     struct{} `json:"unconditional"`
	OnTriggerFunction string   `json:"onTriggerFunction"`
}

// NewDeployment builds the descriptor for endpoints served under baseURL.
func NewDeployment(baseURL, logoURL string) Deployment {
	endpoint := func(name string) string {
		return strings.TrimRight(baseURL, "/") + "/" + name
	}
	return Deployment{
		OAuthScopes: []string{
			"https://www.googleapis.com/auth/gmail.addons.execute",
			gmailv1.GmailAddonsCurrentMessageReadonlyScope,
			gmailv1.GmailSendScope,
		},
		AddOns: AddOns{
			Common: CommonAddOn{
				Name:    addOnName,
				LogoURL: logoURL,
				UniversalActions: []UniversalAction{
					{Label: "Settings", RunFunction: endpoint(addon.OnSettingsClicked)},
				},
			},
			Gmail: GmailAddOn{
				ContextualTriggers: []ContextualTrigger{
					{OnTriggerFunction: endpoint(addon.OnEmailSelected)},
				},
			},
		},
	}
}
