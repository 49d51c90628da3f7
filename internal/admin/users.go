package admin

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v4"

	"funnelbot/core/telegram/callbacks"
	"funnelbot/core/telegram/format"
	tghelpers "funnelbot/core/telegram/helpers"
	"funnelbot/core/telegram/keyboard"
	"funnelbot/internal/storage"
)

// cbUsers shows one page of the user list, newest first.
func (p *Panel) cbUsers(c tele.Context) error {
	_ = c.Respond()
	ctx := tghelpers.BuildContext(c)

	page, err := callbacks.PayloadInt(c)
	if err != nil {
		page = 0
	}

	users, total, err := p.users.ListPage(ctx, page)
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d total, page %d)\n", format.Bold("Users"), total, page+1)

	var rows [][]keyboard.InlineBtn
	for _, u := range users {
		label := fmt.Sprintf("%d %s %s", u.TelegramID, u.GroupAB, milestoneMarks(&u))
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   label,
			Unique: cbUser,
			Data:   fmt.Sprintf("%d", u.TelegramID),
		}})
	}

	var nav []keyboard.InlineBtn
	if page > 0 {
		nav = append(nav, keyboard.InlineBtn{Text: "⬅️", Unique: cbUsers, Data: fmt.Sprintf("%d", page-1)})
	}
	if (page+1)*storage.PageSize < total {
		nav = append(nav, keyboard.InlineBtn{Text: "➡️", Unique: cbUsers, Data: fmt.Sprintf("%d", page+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: "⬅️ Back", Unique: cbMenu}})

	return tghelpers.SendHTML(c, b.String(), keyboard.InlineButtonsRows(rows...))
}

func milestoneMarks(u *storage.User) string {
	mark := func(ok bool, sym string) string {
		if ok {
			return sym
		}
		return "·"
	}
	return mark(u.IsSubscribed, "S") + mark(u.IsRegistered, "R") +
		mark(u.HasDeposit, "D") + mark(u.IsPlatinum, "P")
}

// cbUser shows one user's card with milestone reset actions.
func (p *Panel) cbUser(c tele.Context) error {
	_ = c.Respond()

	tid, err := callbacks.PayloadInt64(c)
	if err != nil {
		return err
	}
	return p.sendUserCard(c, tid)
}

func (p *Panel) sendUserCard(c tele.Context, tid int64) error {
	ctx := tghelpers.BuildContext(c)
	u, err := p.users.ByTelegramID(ctx, tid)
	if err != nil {
		return err
	}

	clickID := "-"
	if u.ClickID.Valid {
		clickID = u.ClickID.String
	}
	traderID := "-"
	if u.TraderID.Valid {
		traderID = u.TraderID.String
	}
	text := fmt.Sprintf(
		"%s\n\ntelegram: %s\ngroup: %s\nlang: %s\nclick_id: %s\ntrader_id: %s\nsubscribed: %v\nregistered: %v\ndeposit: %v (total %.2f)\nplatinum: %v\njoined: %s",
		format.Bold("User card"),
		format.Code(fmt.Sprintf("%d", u.TelegramID)),
		u.GroupAB, u.Lang(), clickID, traderID,
		u.IsSubscribed, u.IsRegistered, u.HasDeposit, u.TotalDeposits, u.IsPlatinum,
		u.CreatedAt.Format("2006-01-02"),
	)

	data := func(m string) string { return fmt.Sprintf("%d|%s", u.TelegramID, m) }
	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{
			{Text: "♻️ Clear registration", Unique: cbClear, Data: data("reg")},
			{Text: "♻️ Clear deposit", Unique: cbClear, Data: data("dep")},
		},
		[]keyboard.InlineBtn{
			{Text: "♻️ Clear platinum", Unique: cbClear, Data: data("platinum")},
		},
		[]keyboard.InlineBtn{
			{Text: "⬅️ Back", Unique: cbUsers, Data: "0"},
		},
	)
	return tghelpers.SendHTML(c, text, markup)
}

// cbClear reverts one milestone and re-shows the card.
func (p *Panel) cbClear(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	parts, err := callbacks.PayloadParts(c, "|")
	if err != nil || len(parts) != 2 {
		return c.Respond(&tele.CallbackResponse{Text: "Bad action"})
	}
	tid, err := parseID(parts[0])
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Bad action"})
	}
	if err := p.users.ClearMilestone(ctx, tid, parts[1]); err != nil {
		return err
	}
	_ = c.Respond(&tele.CallbackResponse{Text: "Cleared"})
	return p.sendUserCard(c, tid)
}
