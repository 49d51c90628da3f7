package admin

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"funnelbot/core/telegram/callbacks"
	"funnelbot/core/telegram/format"
	tghelpers "funnelbot/core/telegram/helpers"
	"funnelbot/core/telegram/keyboard"
	"funnelbot/core/telegram/state"
	"funnelbot/internal/screen"
	"funnelbot/internal/settings"
	"funnelbot/internal/texts"
)

// Conversation states of the panel.
const (
	stateEditLink   state.State = "admin_edit_link"
	stateEditTitle  state.State = "admin_edit_title"
	stateEditBody   state.State = "admin_edit_body"
	stateEditPhoto  state.State = "admin_edit_photo"
	stateSetParam   state.State = "admin_set_param"
	stateBcastText  state.State = "admin_bcast_text"
	stateBcastPhoto state.State = "admin_bcast_photo"
)

// Temp data keys.
const (
	tmpLinkKey  = "link_key"
	tmpLang     = "content_lang"
	tmpScreen   = "content_screen"
	tmpParamKey = "param_key"
)

// editableLinks whitelists the settings keys the links editor exposes.
var editableLinks = []struct {
	Key   string
	Label string
}{
	{"REF_REG_A", "Ref link reg (A)"},
	{"REF_REG_B", "Ref link reg (B)"},
	{"REF_DEP_A", "Ref link dep (A)"},
	{"REF_DEP_B", "Ref link dep (B)"},
	{settings.KeyChannelID, "Channel ID"},
	{settings.KeyChannelURL, "Channel URL"},
	{settings.KeySupportURL, "Support URL"},
	{settings.KeyPublicBase, "Public base URL"},
	{settings.KeyPostbackSecret, "Postback secret"},
}

// cbPostbacks shows the URLs to configure on the broker side.
func (p *Panel) cbPostbacks(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)

	base, err := p.settings.PublicBase(ctx)
	if err != nil {
		return err
	}
	secret, err := p.settings.PostbackSecret(ctx)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"%s\n\nSet these URLs in the broker cabinet:\n\nRegistration:\n%s\n\nDeposit:\n%s",
		format.Bold("Postback setup"),
		format.Code(fmt.Sprintf("%s/pb?t=%s&click_id={click_id}&event=reg&trader_id={trader_id}", base, secret)),
		format.Code(fmt.Sprintf("%s/pb?t=%s&click_id={click_id}&event=dep&amount={amount}", base, secret)),
	)
	return tghelpers.SendHTML(c, text, backMarkup())
}

// cbLinks lists the editable link settings with their current values.
func (p *Panel) cbLinks(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)

	var b strings.Builder
	b.WriteString(format.Bold("Links"))
	b.WriteString("\n")
	var rows [][]keyboard.InlineBtn
	for _, l := range editableLinks {
		v, err := p.settings.Get(ctx, l.Key, "")
		if err != nil {
			return err
		}
		shown := v
		if l.Key == settings.KeyPostbackSecret && v != "" {
			shown = "•••"
		}
		if shown == "" {
			shown = "-"
		}
		fmt.Fprintf(&b, "\n%s: %s", l.Label, format.Code(shown))
		rows = append(rows, []keyboard.InlineBtn{{
			Text: "✏️ " + l.Label, Unique: cbLinksEdit, Data: l.Key,
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "⬅️ Back", Unique: cbMenu}})
	return tghelpers.SendHTML(c, b.String(), keyboard.InlineButtonsRows(rows...))
}

// cbLinksEdit starts the text conversation for one link setting.
func (p *Panel) cbLinksEdit(c tele.Context) error {
	_ = c.Respond()
	key := callbacks.CallbackPayload(c)
	known := false
	for _, l := range editableLinks {
		if l.Key == key {
			known = true
			break
		}
	}
	if !known {
		return tghelpers.SendHTML(c, "Unknown setting.", backMarkup())
	}
	p.fsm.SetTemp(c.Sender().ID, tmpLinkKey, key)
	p.fsm.SetState(c.Sender().ID, stateEditLink)
	return tghelpers.SendHTML(c,
		fmt.Sprintf("Send the new value for %s:", format.Code(key)), backMarkup())
}

func (p *Panel) fsmEditLink(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	raw, ok := p.fsm.GetTemp(userID, tmpLinkKey)
	key, _ := raw.(string)
	if !ok || key == "" {
		p.fsm.Clear(userID)
		return p.sendMenu(c)
	}

	value := strings.TrimSpace(c.Text())
	if key == settings.KeyChannelID {
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return tghelpers.SendHTML(c, "That is not a numeric channel ID, try again:", backMarkup())
		}
	}
	if err := p.settings.Set(ctx, key, value); err != nil {
		return err
	}
	p.fsm.Clear(userID)
	return p.cbLinks(c)
}

// cbContent opens the content editor: pick a language first.
func (p *Panel) cbContent(c tele.Context) error {
	_ = c.Respond()
	var rows [][]keyboard.InlineBtn
	for _, lang := range texts.Supported {
		rows = append(rows, []keyboard.InlineBtn{{
			Text: strings.ToUpper(lang), Unique: cbContentLang, Data: lang,
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "⬅️ Back", Unique: cbMenu}})
	return tghelpers.SendHTML(c, format.Bold("Content: choose language"), keyboard.InlineButtonsRows(rows...))
}

func (p *Panel) cbContentLang(c tele.Context) error {
	_ = c.Respond()
	lang := callbacks.CallbackPayload(c)
	if !texts.IsSupported(lang) {
		return p.cbContent(c)
	}
	var rows [][]keyboard.InlineBtn
	for _, scr := range screen.All {
		rows = append(rows, []keyboard.InlineBtn{{
			Text: scr, Unique: cbContentScr, Data: lang + "|" + scr,
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "⬅️ Back", Unique: cbContent}})
	return tghelpers.SendHTML(c,
		format.Bold("Content ("+lang+"): choose screen"),
		keyboard.InlineButtonsRows(rows...))
}

func (p *Panel) cbContentScreen(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)

	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return p.cbContent(c)
	}
	lang, scr := parts[0], parts[1]

	o, err := p.overrides.Get(ctx, lang, scr)
	if err != nil {
		return err
	}
	status := "built-in"
	if o != nil {
		status = "overridden"
	}

	data := func(field string) string { return lang + "|" + scr + "|" + field }
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "✏️ Title", Unique: cbContentEdit, Data: data("title")},
			{Text: "✏️ Text", Unique: cbContentEdit, Data: data("body")},
		},
		[]keyboard.InlineBtn{
			{Text: "🖼 Photo", Unique: cbContentEdit, Data: data("photo")},
		},
		[]keyboard.InlineBtn{
			{Text: "⬅️ Back", Unique: cbContentLang, Data: lang},
		},
	)
	return tghelpers.SendHTML(c,
		fmt.Sprintf("%s\n\nscreen: %s\nlang: %s\nstate: %s",
			format.Bold("Content editor"), scr, lang, status),
		markup)
}

func (p *Panel) cbContentEdit(c tele.Context) error {
	_ = c.Respond()
	userID := c.Sender().ID

	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 3 {
		return p.cbContent(c)
	}
	lang, scr, field := parts[0], parts[1], parts[2]

	p.fsm.SetTemp(userID, tmpLang, lang)
	p.fsm.SetTemp(userID, tmpScreen, scr)
	switch field {
	case "title":
		p.fsm.SetState(userID, stateEditTitle)
		return tghelpers.SendHTML(c, "Send the new title:", backMarkup())
	case "body":
		p.fsm.SetState(userID, stateEditBody)
		return tghelpers.SendHTML(c, "Send the new text:", backMarkup())
	case "photo":
		p.fsm.SetState(userID, stateEditPhoto)
		return tghelpers.SendHTML(c, "Send the new photo:", backMarkup())
	}
	return p.cbContent(c)
}

func (p *Panel) contentTarget(userID int64) (lang, scr string, ok bool) {
	rawLang, _ := p.fsm.GetTemp(userID, tmpLang)
	rawScr, _ := p.fsm.GetTemp(userID, tmpScreen)
	lang, _ = rawLang.(string)
	scr, _ = rawScr.(string)
	return lang, scr, lang != "" && scr != ""
}

func (p *Panel) fsmEditTitle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	lang, scr, ok := p.contentTarget(userID)
	if !ok {
		p.fsm.Clear(userID)
		return p.sendMenu(c)
	}
	if err := p.overrides.SetTitle(ctx, lang, scr, strings.TrimSpace(c.Text())); err != nil {
		return err
	}
	p.fsm.Clear(userID)
	return tghelpers.SendHTML(c, "Title updated.", backMarkup())
}

func (p *Panel) fsmEditBody(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID
	lang, scr, ok := p.contentTarget(userID)
	if !ok {
		p.fsm.Clear(userID)
		return p.sendMenu(c)
	}
	if err := p.overrides.SetBody(ctx, lang, scr, strings.TrimSpace(c.Text())); err != nil {
		return err
	}
	p.fsm.Clear(userID)
	return tghelpers.SendHTML(c, "Text updated.", backMarkup())
}

// fsmEditPhoto saves an uploaded photo as the screen's art. Non-Russian
// languages share the English assets, matching the renderer's lookup.
func (p *Panel) fsmEditPhoto(c tele.Context) error {
	userID := c.Sender().ID
	lang, scr, ok := p.contentTarget(userID)
	if !ok {
		p.fsm.Clear(userID)
		return p.sendMenu(c)
	}
	photo := c.Message().Photo
	if photo == nil {
		return tghelpers.SendHTML(c, "That is not a photo, send an image:", backMarkup())
	}

	dir := "en"
	if lang == "ru" {
		dir = "ru"
	}
	if err := os.MkdirAll(filepath.Join(p.assetsDir, dir), 0o755); err != nil {
		return err
	}
	dst := filepath.Join(p.assetsDir, dir, scr+".jpg")
	if err := p.bot.Download(&photo.File, dst); err != nil {
		return fmt.Errorf("download photo: %w", err)
	}
	p.fsm.Clear(userID)
	return tghelpers.SendHTML(c, "Photo updated.", backMarkup())
}

// cbParamToggle flips one funnel gate.
func (p *Panel) cbParamToggle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	var key string
	switch callbacks.CallbackPayload(c) {
	case "sub":
		key = settings.KeyCheckSubscription
	case "reg":
		key = settings.KeyCheckRegistration
	case "dep":
		key = settings.KeyCheckDeposit
	default:
		return c.Respond(&tele.CallbackResponse{Text: "Bad action"})
	}

	current, err := p.settings.Get(ctx, key, "true")
	if err != nil {
		return err
	}
	if err := p.settings.SetBool(ctx, key, !settings.ParseBool(current)); err != nil {
		return err
	}
	_ = c.Respond(&tele.CallbackResponse{Text: "Toggled"})
	return p.sendParams(c)
}

// cbParamSet starts the numeric input conversation for a threshold.
func (p *Panel) cbParamSet(c tele.Context) error {
	_ = c.Respond()
	userID := c.Sender().ID

	var key string
	switch callbacks.CallbackPayload(c) {
	case "firstdep":
		key = settings.KeyFirstDepositMin
	case "platinum":
		key = settings.KeyPlatinumThreshold
	default:
		return p.sendParams(c)
	}
	p.fsm.SetTemp(userID, tmpParamKey, key)
	p.fsm.SetState(userID, stateSetParam)
	return tghelpers.SendHTML(c,
		fmt.Sprintf("Send the new value for %s:", format.Code(key)), backMarkup())
}

// fsmSetParam stores a numeric setting, re-prompting until the input parses.
func (p *Panel) fsmSetParam(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID := c.Sender().ID

	raw, _ := p.fsm.GetTemp(userID, tmpParamKey)
	key, _ := raw.(string)
	if key == "" {
		p.fsm.Clear(userID)
		return p.sendMenu(c)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(c.Text()), 64)
	if err != nil || v < 0 {
		return tghelpers.SendHTML(c, "That is not a number, try again:", backMarkup())
	}
	if err := p.settings.SetFloat(ctx, key, v); err != nil {
		return err
	}
	p.fsm.Clear(userID)
	return p.sendParams(c)
}
