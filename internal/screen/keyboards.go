package screen

import (
	tele "gopkg.in/telebot.v4"

	"funnelbot/internal/texts"
)

// Callback uniques shared between keyboards and the bot's routers.
const (
	CbMenu         = "menu"
	CbLang         = "lang"
	CbSetLang      = "setlang"
	CbInstructions = "instructions"
	CbGetSignal    = "get_signal"
	CbCheckSub     = "check_sub"
	CbRegister     = "btn_register"
)

var langLabels = map[string]string{
	"ru": "🇷🇺 Русский",
	"en": "🇬🇧 English",
	"hi": "🇮🇳 हिन्दी",
	"es": "🇪🇸 Español",
}

// MenuLinks carries the external URLs the main menu needs.
type MenuLinks struct {
	Support    string
	MiniApp    string
	VIPMiniApp string
}

// LangPicker builds the language selection keyboard, two languages per row.
func LangPicker() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var row []tele.Btn
	var rows []tele.Row
	for _, code := range texts.Supported {
		row = append(row, markup.Data(langLabels[code], CbSetLang, code))
		if len(row) == 2 {
			rows = append(rows, markup.Row(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, markup.Row(row...))
	}
	markup.Inline(rows...)
	return markup
}

// MainMenu builds the main menu. The mini-app button appears only once the
// funnel is complete; platinum users get the VIP variant instead.
func MainMenu(lang string, platinum, canOpen bool, links MenuLinks) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row

	if canOpen {
		if platinum && links.VIPMiniApp != "" {
			rows = append(rows, markup.Row(
				markup.WebApp(texts.T(lang, "btn_open_vip_miniapp"), &tele.WebApp{URL: links.VIPMiniApp}),
			))
		} else if links.MiniApp != "" {
			rows = append(rows, markup.Row(
				markup.WebApp(texts.T(lang, "btn_open_miniapp"), &tele.WebApp{URL: links.MiniApp}),
			))
		}
	} else {
		rows = append(rows, markup.Row(
			markup.Data(texts.T(lang, "btn_get_signal"), CbGetSignal),
		))
	}

	rows = append(rows, markup.Row(
		markup.Data(texts.T(lang, "btn_instruction"), CbInstructions),
	))
	if links.Support != "" {
		rows = append(rows, markup.Row(
			markup.URL(texts.T(lang, "btn_support"), links.Support),
		))
	}
	rows = append(rows, markup.Row(
		markup.Data(texts.T(lang, "btn_change_lang"), CbLang),
	))

	markup.Inline(rows...)
	return markup
}

// SubscribeKB links to the channel and offers the re-check button.
func SubscribeKB(lang, channelURL string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var rows []tele.Row
	if channelURL != "" {
		rows = append(rows, markup.Row(markup.URL("📣 Telegram", channelURL)))
	}
	rows = append(rows,
		markup.Row(markup.Data(texts.T(lang, "btn_ive_subscribed"), CbCheckSub)),
		markup.Row(markup.Data(texts.T(lang, "btn_menu"), CbMenu)),
	)
	markup.Inline(rows...)
	return markup
}

// RegisterKB carries the signed broker registration link.
func RegisterKB(lang, url string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.URL(texts.T(lang, "btn_register"), url)),
		markup.Row(markup.Data(texts.T(lang, "btn_menu"), CbMenu)),
	)
	return markup
}

// DepositKB carries the signed broker deposit link.
func DepositKB(lang, url string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.URL(texts.T(lang, "btn_deposit"), url)),
		markup.Row(markup.Data(texts.T(lang, "btn_menu"), CbMenu)),
	)
	return markup
}

// AccessKB opens the mini-app after the funnel completes. vip switches to the
// platinum variant.
func AccessKB(lang string, vip bool, links MenuLinks) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	var appRow tele.Row
	if vip && links.VIPMiniApp != "" {
		appRow = markup.Row(markup.WebApp(texts.T(lang, "btn_open_vip_miniapp"), &tele.WebApp{URL: links.VIPMiniApp}))
	} else {
		appRow = markup.Row(markup.WebApp(texts.T(lang, "btn_open_miniapp"), &tele.WebApp{URL: links.MiniApp}))
	}
	markup.Inline(
		appRow,
		markup.Row(markup.Data(texts.T(lang, "btn_menu"), CbMenu)),
	)
	return markup
}

// InstructionKB shows the register shortcut under the instructions. The button
// is a callback so already-registered users get an alert instead of the link.
func InstructionKB(lang string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data(texts.T(lang, "btn_register"), CbRegister)),
		markup.Row(markup.Data(texts.T(lang, "btn_menu"), CbMenu)),
	)
	return markup
}
