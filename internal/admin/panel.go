// Package admin implements the in-chat admin panel: user management, funnel
// parameters, content editing, broadcasts, and counters.
package admin

import (
	"fmt"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	coretelegram "funnelbot/core/telegram"
	"funnelbot/core/telegram/commands"
	"funnelbot/core/telegram/format"
	tghelpers "funnelbot/core/telegram/helpers"
	"funnelbot/core/telegram/keyboard"
	"funnelbot/core/telegram/state"
	"funnelbot/internal/settings"
	"funnelbot/internal/storage"
)

// Callback uniques of the panel. All of them are admin-guarded at dispatch.
const (
	cbMenu        = "adm_menu"
	cbUsers       = "adm_users"
	cbUser        = "adm_user"
	cbClear       = "adm_clear"
	cbPostbacks   = "adm_postbacks"
	cbLinks       = "adm_links"
	cbLinksEdit   = "adm_links_edit"
	cbContent     = "adm_content"
	cbContentLang = "adm_content_lang"
	cbContentScr  = "adm_content_screen"
	cbContentEdit = "adm_content_edit"
	cbParams      = "adm_params"
	cbParamToggle = "adm_param_toggle"
	cbParamSet    = "adm_param_set"
	cbBcast       = "adm_bcast"
	cbBcastSeg    = "adm_bcast_seg"
	cbBcastText   = "adm_bcast_text"
	cbBcastPhoto  = "adm_bcast_photo"
	cbBcastGo     = "adm_bcast_go"
	cbStats       = "adm_stats"
)

// Panel is the admin side of the bot.
type Panel struct {
	users     *storage.Users
	kv        *storage.Config
	overrides *storage.Overrides
	settings  *settings.Service
	fsm       state.Manager

	adminIDs  []int64
	assetsDir string
	delay     time.Duration

	bot *tele.Bot
}

// NewPanel builds the panel. Attach must be called once the bot is running.
func NewPanel(users *storage.Users, kv *storage.Config, overrides *storage.Overrides, svc *settings.Service, fsm state.Manager, adminIDs []int64, assetsDir string, delay time.Duration) *Panel {
	return &Panel{
		users:     users,
		kv:        kv,
		overrides: overrides,
		settings:  svc,
		fsm:       fsm,
		adminIDs:  adminIDs,
		assetsDir: assetsDir,
		delay:     delay,
	}
}

// Attach hands the panel the live bot instance and registers its
// conversation handlers.
func (p *Panel) Attach(bot *tele.Bot) {
	p.bot = bot
	state.RegisterHandler(stateEditLink, p.guarded(p.fsmEditLink))
	state.RegisterHandler(stateEditTitle, p.guarded(p.fsmEditTitle))
	state.RegisterHandler(stateEditBody, p.guarded(p.fsmEditBody))
	state.RegisterHandler(stateEditPhoto, p.guarded(p.fsmEditPhoto))
	state.RegisterHandler(stateSetParam, p.guarded(p.fsmSetParam))
	state.RegisterHandler(stateBcastText, p.guarded(p.fsmBcastText))
	state.RegisterHandler(stateBcastPhoto, p.guarded(p.fsmBcastPhoto))
}

// Register wires the /admin command and panel callbacks.
func (p *Panel) Register(reg *coretelegram.Registry) {
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     p.cmdAdmin,
		Description: "Admin panel",
		AdminOnly:   true,
		Hidden:      true,
	})

	for key, h := range map[string]tele.HandlerFunc{
		cbMenu:        p.cbMenu,
		cbUsers:       p.cbUsers,
		cbUser:        p.cbUser,
		cbClear:       p.cbClear,
		cbPostbacks:   p.cbPostbacks,
		cbLinks:       p.cbLinks,
		cbLinksEdit:   p.cbLinksEdit,
		cbContent:     p.cbContent,
		cbContentLang: p.cbContentLang,
		cbContentScr:  p.cbContentScreen,
		cbContentEdit: p.cbContentEdit,
		cbParams:      p.cbParams,
		cbParamToggle: p.cbParamToggle,
		cbParamSet:    p.cbParamSet,
		cbBcast:       p.cbBcast,
		cbBcastSeg:    p.cbBcastSeg,
		cbBcastText:   p.cbBcastText,
		cbBcastPhoto:  p.cbBcastPhoto,
		cbBcastGo:     p.cbBcastGo,
		cbStats:       p.cbStats,
	} {
		_ = reg.RegisterCallback(key, p.guarded(h))
	}
}

func (p *Panel) isAdmin(id int64) bool {
	for _, a := range p.adminIDs {
		if a == id {
			return true
		}
	}
	return false
}

// guarded drops non-admin invocations. Commands are already gated by the
// router middleware; callbacks and FSM inputs need their own check.
func (p *Panel) guarded(h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Sender() == nil || !p.isAdmin(c.Sender().ID) {
			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: "Not allowed"})
			}
			return nil
		}
		return h(c)
	}
}

func (p *Panel) cmdAdmin(c tele.Context) error {
	return p.sendMenu(c)
}

func (p *Panel) cbMenu(c tele.Context) error {
	_ = c.Respond()
	p.fsm.Clear(c.Sender().ID)
	return p.sendMenu(c)
}

func (p *Panel) sendMenu(c tele.Context) error {
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "👥 Users", Unique: cbUsers, Data: "0"},
			{Text: "📊 Stats", Unique: cbStats},
		},
		[]keyboard.InlineBtn{
			{Text: "🔗 Links", Unique: cbLinks},
			{Text: "🧾 Postbacks", Unique: cbPostbacks},
		},
		[]keyboard.InlineBtn{
			{Text: "🖼 Content", Unique: cbContent},
			{Text: "⚙️ Parameters", Unique: cbParams},
		},
		[]keyboard.InlineBtn{
			{Text: "📣 Broadcast", Unique: cbBcast},
		},
	)
	return tghelpers.SendHTML(c, format.Bold("Admin panel"), markup)
}

// cbStats shows the A-group funnel counters.
func (p *Panel) cbStats(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)
	s, err := p.users.FunnelStats(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf(
		"%s\n\nusers: %d\nsubscribed: %d\nregistered: %d\ndeposited: %d\nplatinum: %d",
		format.Bold("Funnel stats (group A)"),
		s.Total, s.Subscribed, s.Registered, s.Deposited, s.Platinum,
	)
	return tghelpers.SendHTML(c, text, backMarkup())
}

// cbParams shows gate toggles and numeric thresholds.
func (p *Panel) cbParams(c tele.Context) error {
	_ = c.Respond()
	return p.sendParams(c)
}

func (p *Panel) sendParams(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	sub, err := p.settings.SubscriptionGate(ctx)
	if err != nil {
		return err
	}
	reg, err := p.settings.RegistrationGate(ctx)
	if err != nil {
		return err
	}
	dep, err := p.settings.DepositGate(ctx)
	if err != nil {
		return err
	}
	minDep, err := p.settings.FirstDepositMin(ctx)
	if err != nil {
		return err
	}
	threshold, err := p.settings.PlatinumThreshold(ctx)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(
		"%s\n\nfirst deposit min: %.2f\nplatinum threshold: %.2f",
		format.Bold("Parameters"), minDep, threshold,
	)
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: toggleLabel("Subscription", sub), Unique: cbParamToggle, Data: "sub"}},
		[]keyboard.InlineBtn{{Text: toggleLabel("Registration", reg), Unique: cbParamToggle, Data: "reg"}},
		[]keyboard.InlineBtn{{Text: toggleLabel("Deposit", dep), Unique: cbParamToggle, Data: "dep"}},
		[]keyboard.InlineBtn{
			{Text: "✏️ First deposit min", Unique: cbParamSet, Data: "firstdep"},
			{Text: "✏️ Platinum threshold", Unique: cbParamSet, Data: "platinum"},
		},
		[]keyboard.InlineBtn{{Text: "⬅️ Back", Unique: cbMenu}},
	)
	return tghelpers.SendHTML(c, text, markup)
}

func toggleLabel(name string, on bool) string {
	if on {
		return "🟢 " + name
	}
	return "🔴 " + name
}

func backMarkup() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{{Text: "⬅️ Back", Unique: cbMenu}})
}

func parseID(payload string) (int64, error) {
	return strconv.ParseInt(payload, 10, 64)
}
