package addon

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"mailtothings/internal/card"
	"mailtothings/internal/model"
)

type memProps struct {
	vals map[string]string
	sets int
}

func newMemProps() *memProps { return &memProps{vals: make(map[string]string)} }

func (m *memProps) GetProperty(_ context.Context, userID, key string) (string, bool, error) {
	v, ok := m.vals[userID+"|"+key]
	return v, ok, nil
}

func (m *memProps) SetProperty(_ context.Context, userID, key, value string) error {
	m.sets++
	m.vals[userID+"|"+key] = value
	return nil
}

type sent struct{ to, subject, body string }

type fakeMailbox struct {
	msgs    map[string]model.Message
	sendErr error
	sent    []sent
}

func (f *fakeMailbox) Message(_ context.Context, id string) (model.Message, error) {
	m, ok := f.msgs[id]
	if !ok {
		return model.Message{}, errors.New("not found")
	}
	return m, nil
}

func (f *fakeMailbox) Send(_ context.Context, to, subject, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sent{to, subject, body})
	return nil
}

var testMessage = model.Message{
	ID:        "m1",
	ThreadID:  "t1",
	Subject:   "Quarterly report",
	From:      "Alice <alice@example.com>",
	To:        "bob@example.com",
	Date:      time.Date(2024, 3, 5, 23, 30, 0, 0, time.UTC),
	Permalink: "https://mail.google.com/mail/u/0/#all/t1",
	PlainBody: "Hi Bob,\n\n\nPlease review.\n\nThanks",
}

func setup(t *testing.T) (*App, *memProps, *fakeMailbox) {
	t.Helper()
	props := newMemProps()
	mb := &fakeMailbox{msgs: map[string]model.Message{"m1": testMessage}}
	app := New(props, "https://addon.example.com/addon", log.New(io.Discard))
	return app, props, mb
}

func eventFor(messageID string) *model.Event {
	ev := &model.Event{}
	if messageID != "" {
		ev.Gmail = &model.GmailEventObject{MessageID: messageID, AccessToken: "tok"}
	}
	return ev
}

func title(c card.Card) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Title
}

func paragraphs(c card.Card) string {
	var b strings.Builder
	for _, s := range c.Sections {
		for _, w := range s.Widgets {
			if w.TextParagraph != nil {
				b.WriteString(w.TextParagraph.Text)
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func TestEmailSelected_NoDestinationShowsSettings(t *testing.T) {
	app, _, mb := setup(t)
	resp, err := app.EmailSelected(context.Background(), &Request{Event: eventFor("m1"), UserID: "u1", Mailbox: mb})
	if err != nil {
		t.Fatalf("EmailSelected: %v", err)
	}
	cards, ok := resp.(card.Cards)
	if !ok || len(cards) != 1 {
		t.Fatalf("want exactly one card, got %#v", resp)
	}
	if title(cards[0]) != "<b>Settings</b>" {
		t.Fatalf("want Settings card, got %q", title(cards[0]))
	}
	in := cards[0].Inputs()
	if len(in) != 1 || in[0].Name != PropEmail || in[0].Value != "" {
		t.Fatalf("settings inputs = %+v", in)
	}
}

func TestEmailSelected_WithDestinationShowsNewToDo(t *testing.T) {
	app, props, mb := setup(t)
	props.vals["u1|"+PropEmail] = "x@things.email"

	resp, err := app.EmailSelected(context.Background(), &Request{Event: eventFor("m1"), UserID: "u1", Mailbox: mb})
	if err != nil {
		t.Fatalf("EmailSelected: %v", err)
	}
	cards, ok := resp.(card.Cards)
	if !ok || len(cards) != 1 {
		t.Fatalf("want exactly one card, got %#v", resp)
	}
	c := cards[0]
	if title(c) != "New To-Do" {
		t.Fatalf("want New To-Do card, got %q", title(c))
	}
	text := paragraphs(c)
	if !strings.Contains(text, "<b>Quarterly report</b>") {
		t.Errorf("subject preview missing: %q", text)
	}
	if !strings.Contains(text, "Hi Bob,\nPlease review.\nThanks") {
		t.Errorf("body preview not cleaned: %q", text)
	}
	btns := c.Buttons()
	if len(btns) != 1 || btns[0].OnClick.Action.Function != "https://addon.example.com/addon/onCreateTodoClicked" {
		t.Fatalf("buttons = %+v", btns)
	}
	if props.sets != 0 {
		t.Fatal("selection must not write preferences")
	}
}

func TestEmailSelected_PreviewIsTruncated(t *testing.T) {
	app, props, mb := setup(t)
	props.vals["u1|"+PropEmail] = "x@things.email"
	long := testMessage
	long.Subject = strings.Repeat("s", 150)
	long.PlainBody = strings.Repeat("b", 800)
	mb.msgs["m1"] = long

	resp, err := app.EmailSelected(context.Background(), &Request{Event: eventFor("m1"), UserID: "u1", Mailbox: mb})
	if err != nil {
		t.Fatalf("EmailSelected: %v", err)
	}
	text := paragraphs(resp.(card.Cards)[0])
	if !strings.Contains(text, "<b>"+strings.Repeat("s", 99)+"…</b>") {
		t.Errorf("subject not truncated to 100: %q", text)
	}
	if strings.Contains(text, strings.Repeat("b", 500)) || !strings.Contains(text, strings.Repeat("b", 499)+"…") {
		t.Errorf("body not truncated to 500")
	}
}

func TestEmailSelected_PreviewIsEscaped(t *testing.T) {
	app, props, mb := setup(t)
	props.vals["u1|"+PropEmail] = "x@things.email"
	m := testMessage
	m.Subject = "Q&A <draft>"
	m.PlainBody = "a < b & c"
	mb.msgs["m1"] = m

	resp, err := app.EmailSelected(context.Background(), &Request{Event: eventFor("m1"), UserID: "u1", Mailbox: mb})
	if err != nil {
		t.Fatalf("EmailSelected: %v", err)
	}
	text := paragraphs(resp.(card.Cards)[0])
	if !strings.Contains(text, "<b>Q&amp;A &lt;draft&gt;</b>") {
		t.Errorf("subject not escaped: %q", text)
	}
	if !strings.Contains(text, "a &lt; b &amp; c") {
		t.Errorf("body not escaped: %q", text)
	}
}

func TestCreateTodo_SendsComposedBody(t *testing.T) {
	app, props, mb := setup(t)
	props.vals["u1|"+PropEmail] = "x@things.email"
	ev := eventFor("m1")
	ev.SetFormValue("comments", "Follow up Friday")
	ev.CommonEventObject.TimeZone = &model.TimeZone{ID: "America/New_York"}

	resp, err := app.CreateTodo(context.Background(), &Request{Event: ev, UserID: "u1", Mailbox: mb})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	ar, ok := resp.(card.ActionResponse)
	if !ok {
		t.Fatalf("want ActionResponse, got %T", resp)
	}
	if ar.Notification != nil || len(ar.Navigations) != 1 || ar.Navigations[0].PushCard == nil {
		t.Fatalf("want a single push navigation, got %+v", ar)
	}
	if title(*ar.Navigations[0].PushCard) != "To-Do sent to Things successfully" {
		t.Fatalf("pushed %q", title(*ar.Navigations[0].PushCard))
	}

	if len(mb.sent) != 1 {
		t.Fatalf("sent %d messages", len(mb.sent))
	}
	got := mb.sent[0]
	if got.to != "x@things.email" || got.subject != "Quarterly report" {
		t.Fatalf("sent to %q subject %q", got.to, got.subject)
	}
	want := "Follow up Friday\n" +
		"Original e-mail: https://mail.google.com/mail/u/0/#all/t1\n" +
		"---\n" +
		"Subject: Quarterly report\n" +
		"From: Alice <alice@example.com>\n" +
		"To: bob@example.com\n" +
		"Date: 3/5/2024\n" +
		"\n" +
		"Hi Bob,\nPlease review.\nThanks\n" +
		"---"
	if got.body != want {
		t.Fatalf("body:\n%s\nwant:\n%s", got.body, want)
	}
}

func TestCreateTodo_DateFollowsEventTimeZone(t *testing.T) {
	app, props, mb := setup(t)
	props.vals["u1|"+PropEmail] = "x@things.email"
	ev := eventFor("m1")
	ev.CommonEventObject.TimeZone = &model.TimeZone{ID: "Asia/Tokyo"}

	if _, err := app.CreateTodo(context.Background(), &Request{Event: ev, UserID: "u1", Mailbox: mb}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if !strings.Contains(mb.sent[0].body, "Date: 3/6/2024\n") {
		t.Fatalf("expected Tokyo date, body:\n%s", mb.sent[0].body)
	}
}

func TestCreateTodo_MissingCommentsStartsWithEmptyLine(t *testing.T) {
	app, props, mb := setup(t)
	props.vals["u1|"+PropEmail] = "x@things.email"

	if _, err := app.CreateTodo(context.Background(), &Request{Event: eventFor("m1"), UserID: "u1", Mailbox: mb}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if !strings.HasPrefix(mb.sent[0].body, "\nOriginal e-mail: ") {
		t.Fatalf("body = %q", mb.sent[0].body)
	}
}

func TestCreateTodo_SendFailureNotifies(t *testing.T) {
	app, props, mb := setup(t)
	props.vals["u1|"+PropEmail] = "x@things.email"
	mb.sendErr = errors.New("quota exceeded")

	resp, err := app.CreateTodo(context.Background(), &Request{Event: eventFor("m1"), UserID: "u1", Mailbox: mb})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	ar, ok := resp.(card.ActionResponse)
	if !ok {
		t.Fatalf("want ActionResponse, got %T", resp)
	}
	if len(ar.Navigations) != 0 {
		t.Fatalf("send failure must not navigate: %+v", ar.Navigations)
	}
	if ar.Notification == nil || ar.Notification.Text != msgSendFailed {
		t.Fatalf("notification = %+v", ar.Notification)
	}
	if props.vals["u1|"+PropEmail] != "x@things.email" || props.sets != 0 {
		t.Fatal("send failure must not touch preferences")
	}
}

func TestCreateTodo_NoMessage(t *testing.T) {
	app, _, mb := setup(t)
	_, err := app.CreateTodo(context.Background(), &Request{Event: eventFor(""), UserID: "u1", Mailbox: mb})
	if !errors.Is(err, ErrNoMessage) {
		t.Fatalf("got %v, want ErrNoMessage", err)
	}
}

func TestSettingsClicked_PrefillsStoredValue(t *testing.T) {
	app, props, mb := setup(t)
	props.vals["u1|"+PropEmail] = "x@things.email"

	resp, err := app.SettingsClicked(context.Background(), &Request{Event: eventFor(""), UserID: "u1", Mailbox: mb})
	if err != nil {
		t.Fatalf("SettingsClicked: %v", err)
	}
	u, ok := resp.(card.UniversalActionResponse)
	if !ok || len(u.Cards) != 1 {
		t.Fatalf("want one universal card, got %#v", resp)
	}
	in := u.Cards[0].Inputs()
	if len(in) != 1 || in[0].Value != "x@things.email" {
		t.Fatalf("inputs = %+v", in)
	}
}

func TestSettingsSave_RejectsInvalidAddress(t *testing.T) {
	for _, input := range []string{"bad@gmail.com", ""} {
		app, props, mb := setup(t)
		props.vals["u1|"+PropEmail] = "old@things.email"
		ev := eventFor("m1")
		ev.SetFormValue(PropEmail, input)

		resp, err := app.SettingsSaveClicked(context.Background(), &Request{Event: ev, UserID: "u1", Mailbox: mb})
		if err != nil {
			t.Fatalf("%q: SettingsSaveClicked: %v", input, err)
		}
		ar := resp.(card.ActionResponse)
		if ar.Notification == nil || ar.Notification.Text != msgInvalidEmail {
			t.Fatalf("%q: notification = %+v", input, ar.Notification)
		}
		if len(ar.Navigations) != 0 {
			t.Fatalf("%q: invalid input must not navigate", input)
		}
		if props.sets != 0 || props.vals["u1|"+PropEmail] != "old@things.email" {
			t.Fatalf("%q: store was modified", input)
		}
	}
}

func TestSettingsSave_StoresValidAddress(t *testing.T) {
	app, props, mb := setup(t)
	ev := eventFor("m1")
	ev.SetFormValue(PropEmail, "ok@things.email")

	resp, err := app.SettingsSaveClicked(context.Background(), &Request{Event: ev, UserID: "u1", Mailbox: mb})
	if err != nil {
		t.Fatalf("SettingsSaveClicked: %v", err)
	}
	if got := props.vals["u1|"+PropEmail]; got != "ok@things.email" {
		t.Fatalf("stored %q", got)
	}
	ar := resp.(card.ActionResponse)
	if ar.Notification == nil || ar.Notification.Text != msgSettingsSaved {
		t.Fatalf("notification = %+v", ar.Notification)
	}
	if len(ar.Navigations) != 2 || !ar.Navigations[0].PopToRoot || ar.Navigations[1].UpdateCard == nil {
		t.Fatalf("navigations = %+v", ar.Navigations)
	}
	if title(*ar.Navigations[1].UpdateCard) != "New To-Do" {
		t.Fatalf("root replaced with %q", title(*ar.Navigations[1].UpdateCard))
	}
}

func TestSettingsSave_WithoutMessageOnlyPopsToRoot(t *testing.T) {
	app, props, mb := setup(t)
	ev := eventFor("")
	ev.SetFormValue(PropEmail, "ok@things.email")

	resp, err := app.SettingsSaveClicked(context.Background(), &Request{Event: ev, UserID: "u1", Mailbox: mb})
	if err != nil {
		t.Fatalf("SettingsSaveClicked: %v", err)
	}
	ar := resp.(card.ActionResponse)
	if len(ar.Navigations) != 1 || !ar.Navigations[0].PopToRoot {
		t.Fatalf("navigations = %+v", ar.Navigations)
	}
	if props.vals["u1|"+PropEmail] != "ok@things.email" {
		t.Fatal("value not stored")
	}
}

func TestRegistryDispatch(t *testing.T) {
	app, _, mb := setup(t)
	r := app.Registry()

	want := []string{OnCreateTodoClicked, OnEmailSelected, OnSettingsClicked, OnSettingsSaveClicked}
	got := r.Names()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("names = %v", got)
	}

	resp, err := r.Dispatch(context.Background(), OnSettingsClicked, &Request{Event: eventFor(""), UserID: "u1", Mailbox: mb})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, ok := resp.(card.UniversalActionResponse); !ok {
		t.Fatalf("got %T", resp)
	}

	if _, err := r.Dispatch(context.Background(), "onNope", &Request{}); !errors.Is(err, ErrUnknownHandler) {
		t.Fatalf("got %v, want ErrUnknownHandler", err)
	}
}

func TestHandlerName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"onCreateTodoClicked", "onCreateTodoClicked"},
		{"https://addon.example.com/addon/onSettingsSaveClicked", "onSettingsSaveClicked"},
		{"https://addon.example.com/addon/onSettingsSaveClicked/", "onSettingsSaveClicked"},
	}
	for _, tc := range tests {
		if got := HandlerName(tc.in); got != tc.want {
			t.Errorf("HandlerName(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestLocalActionsUseBareNames(t *testing.T) {
	app := New(newMemProps(), "", log.New(io.Discard))
	if got := app.action(OnSettingsSaveClicked).Function; got != OnSettingsSaveClicked {
		t.Fatalf("got %q", got)
	}
}

func TestRegistryHas(t *testing.T) {
	app, _, _ := setup(t)
	r := app.Registry()
	for _, name := range []string{OnEmailSelected, OnCreateTodoClicked, OnSettingsClicked, OnSettingsSaveClicked} {
		if !r.Has(name) {
			t.Errorf("Has(%q) = false", name)
		}
	}
	if r.Has("onNope") {
		t.Error(`Has("onNope") = true`)
	}
}
