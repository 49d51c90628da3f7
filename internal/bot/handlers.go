package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	coretelegram "funnelbot/core/telegram"
	"funnelbot/core/telegram/callbacks"
	"funnelbot/core/telegram/commands"
	"funnelbot/core/telegram/format"
	tghelpers "funnelbot/core/telegram/helpers"
	"funnelbot/internal/funnel"
	"funnelbot/internal/screen"
	"funnelbot/internal/texts"
	"funnelbot/internal/token"
)

func (a *App) registerHandlers(reg *coretelegram.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Start the bot",
	})
	reg.RegisterCommand("/whoami", commands.Command{
		Handler:     a.handleWhoami,
		Description: "Show your funnel state",
		Hidden:      true,
	})

	_ = reg.RegisterCallback(screen.CbMenu, a.cbMenu)
	_ = reg.RegisterCallback(screen.CbLang, a.cbLangPicker)
	_ = reg.RegisterCallback(screen.CbSetLang, a.cbSetLang)
	_ = reg.RegisterCallback(screen.CbInstructions, a.cbInstructions)
	_ = reg.RegisterCallback(screen.CbRegister, a.cbRegister)
	_ = reg.RegisterCallback(screen.CbGetSignal, a.cbGetSignal)
	_ = reg.RegisterCallback(screen.CbCheckSub, a.cbCheckSub)

	a.admin.Register(reg)
}

// handleStart greets a user: first contact gets the language picker, everyone
// else the main menu.
func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	u, err := a.users.GetOrCreate(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	if u.Lang() == "" {
		return a.renderer.Render(ctx, u.TelegramID, screen.Langs, screen.LangPicker())
	}
	return a.renderMainMenu(c, u.TelegramID)
}

// handleWhoami prints the raw funnel state, useful when debugging postbacks.
func (a *App) handleWhoami(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	u, err := a.users.GetOrCreate(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	clickID := "-"
	if u.ClickID.Valid {
		clickID = u.ClickID.String
	}
	text := fmt.Sprintf(
		"%s\nid: %s\ngroup: %s\nclick_id: %s\nsubscribed: %v\nregistered: %v\ndeposit: %v (total %.2f)\nplatinum: %v",
		format.Bold("whoami"),
		format.Code(fmt.Sprintf("%d", u.TelegramID)),
		u.GroupAB, clickID,
		u.IsSubscribed, u.IsRegistered, u.HasDeposit, u.TotalDeposits, u.IsPlatinum,
	)
	return tghelpers.SendHTML(c, text)
}

// handlePhoto feeds photo uploads to an active conversation (admin content or
// broadcast editing); otherwise the photo is ignored.
func (a *App) handlePhoto(c tele.Context) error {
	if a.fsm.InProgress(c.Sender().ID) {
		return a.fsm.ManagerHandler(c)
	}
	return nil
}

func (a *App) cbMenu(c tele.Context) error {
	_ = c.Respond()
	return a.renderMainMenu(c, c.Sender().ID)
}

func (a *App) cbLangPicker(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)
	return a.renderer.Render(ctx, c.Sender().ID, screen.Langs, screen.LangPicker())
}

func (a *App) cbSetLang(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)
	lang := callbacks.CallbackPayload(c)
	if !texts.IsSupported(lang) {
		lang = texts.FallbackLanguage
	}
	if err := a.users.SetLanguage(ctx, c.Sender().ID, lang); err != nil {
		return err
	}
	return a.renderMainMenu(c, c.Sender().ID)
}

func (a *App) cbInstructions(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)
	u, err := a.users.GetOrCreate(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	return a.renderer.Render(ctx, u.TelegramID, screen.Instruction, screen.InstructionKB(u.Lang()))
}

// cbRegister answers the register button under the instructions: registered
// users get an alert, the rest the registration screen with a signed link.
func (a *App) cbRegister(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	u, err := a.users.GetOrCreate(ctx, c.Sender().ID)
	if err != nil {
		return err
	}
	if u.IsRegistered {
		return c.Respond(&tele.CallbackResponse{
			Text:      texts.T(u.Lang(), "already_registered"),
			ShowAlert: true,
		})
	}
	_ = c.Respond()

	snap, err := funnel.LoadSnapshot(ctx, a.settings)
	if err != nil {
		return err
	}
	url, err := a.evaluator.SignedLink(ctx, u.TelegramID, token.KindRegistration, snap.PublicBase)
	if err != nil {
		return err
	}
	return a.renderer.Render(ctx, u.TelegramID, screen.Register, screen.RegisterKB(u.Lang(), url))
}

// cbGetSignal pushes the user to their next funnel step.
func (a *App) cbGetSignal(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)
	if _, err := a.users.GetOrCreate(ctx, c.Sender().ID); err != nil {
		return err
	}
	_, err := a.evaluator.Evaluate(ctx, c.Sender().ID)
	return err
}

// cbCheckSub re-checks channel membership on the user's request.
func (a *App) cbCheckSub(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	u, err := a.users.GetOrCreate(ctx, c.Sender().ID)
	if err != nil {
		return err
	}

	snap, err := funnel.LoadSnapshot(ctx, a.settings)
	if err != nil {
		return err
	}

	if !u.IsSubscribed && a.msgr.IsChannelMember(ctx, snap.ChannelID, u.TelegramID) {
		if err := a.users.SetSubscribed(ctx, u.TelegramID); err != nil {
			return err
		}
		u.IsSubscribed = true
	}

	if u.IsSubscribed {
		_ = c.Respond(&tele.CallbackResponse{Text: texts.T(u.Lang(), "sub_confirmed")})
	} else {
		_ = c.Respond(&tele.CallbackResponse{
			Text:      texts.T(u.Lang(), "sub_not_yet"),
			ShowAlert: true,
		})
	}

	_, err = a.evaluator.EvaluateWith(ctx, u.TelegramID, snap)
	return err
}

func (a *App) renderMainMenu(c tele.Context, telegramID int64) error {
	ctx := tghelpers.BuildContext(c)
	u, err := a.users.ByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}
	snap, err := funnel.LoadSnapshot(ctx, a.settings)
	if err != nil {
		return err
	}
	canOpen := (!snap.SubscriptionGate || u.IsSubscribed) &&
		(!snap.RegistrationGate || u.IsRegistered) &&
		(!snap.DepositGate || u.HasDeposit)
	links := screen.MenuLinks{
		Support:    a.cfg.Funnel.SupportURL,
		MiniApp:    a.cfg.Funnel.MiniAppURL,
		VIPMiniApp: a.cfg.Funnel.VIPMiniAppURL,
	}
	return a.renderer.Render(ctx, u.TelegramID, screen.Main,
		screen.MainMenu(u.Lang(), u.IsPlatinum, canOpen, links))
}
