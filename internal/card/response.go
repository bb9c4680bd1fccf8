package card

// Notification is a transient message shown to the user.
type Notification struct {
	Text string `json:"text"`
}

// Navigation is one step applied to the host's card stack. Exactly one field
// is set.
type Navigation struct {
	PushCard   *Card `json:"pushCard,omitempty"`
	UpdateCard *Card `json:"updateCard,omitempty"`
	PopToRoot  bool  `json:"popToRoot,omitempty"`
	PopCard    bool  `json:"popCard,omitempty"`
}

func Push(c Card) Navigation   { return Navigation{PushCard: &c} }
func Update(c Card) Navigation { return Navigation{UpdateCard: &c} }
func PopToRoot() Navigation    { return Navigation{PopToRoot: true} }

// Response is anything a handler can return to the host.
type Response interface {
	// RenderActions returns the JSON document written back to the host.
	RenderActions() any
}

type renderAction struct {
	Navigations  []Navigation  `json:"navigations,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// Cards is returned by trigger handlers; the host displays the cards.
type Cards []Card

func (cs Cards) RenderActions() any {
	navs := make([]Navigation, 0, len(cs))
	for _, c := range cs {
		navs = append(navs, Push(c))
	}
	return actionEnvelope{renderAction{Navigations: navs}}
}

// UniversalActionResponse displays cards in response to a universal action.
type UniversalActionResponse struct {
	Cards Cards
}

func (u UniversalActionResponse) RenderActions() any {
	return u.Cards.RenderActions()
}

// ActionResponse answers a widget action with an optional notification and
// navigation.
type ActionResponse struct {
	Notification *Notification
	Navigations  []Navigation
}

type actionEnvelope struct {
	Action renderAction `json:"action"`
}

func (a ActionResponse) RenderActions() any {
	return struct {
		RenderActions actionEnvelope `json:"renderActions"`
	}{actionEnvelope{renderAction{Navigations: a.Navigations, Notification: a.Notification}}}
}

// Notify builds a notification-only action response.
func Notify(text string) ActionResponse {
	return ActionResponse{Notification: &Notification{Text: text}}
}
