package bot

import (
	"context"
	"fmt"
	"strings"
)

func (b *Bot) handleCategories(ctx context.Context, chatID int64) error {
	categories, err := b.svc.Categories.ListCategories(ctx)
	if err != nil {
		return b.sendError(ctx, chatID, "List categories", err)
	}
	var sb strings.Builder
	sb.WriteString("📂 <b>Categories</b>\n")
	for _, cat := range categories {
		sb.WriteString(categoryLine(cat))
	}
	sb.WriteString("\n/newcategory &lt;name&gt; · /renamecategory &lt;id&gt; &lt;name&gt; · /deletecategory &lt;id&gt;")
	return b.sendText(chatID, sb.String())
}

func (b *Bot) handleNewCategory(ctx context.Context, chatID int64, name string) error {
	if name == "" {
		return b.sendText(chatID, "Give a name: /newcategory Shopping")
	}
	category, err := b.svc.Categories.CreateCategory(ctx, name)
	if err != nil {
		return b.sendError(ctx, chatID, "Create category", err)
	}
	return b.sendText(chatID, fmt.Sprintf("📂 Category #%d %s created.", category.ID, escape(category.Name)))
}

func (b *Bot) handleRenameCategory(ctx context.Context, chatID int64, args string) error {
	idText, name, _ := strings.Cut(args, " ")
	id, err := parseID(idText)
	if err != nil || strings.TrimSpace(name) == "" {
		return b.sendText(chatID, "Use /renamecategory &lt;id&gt; &lt;new name&gt;")
	}
	category, err := b.svc.Categories.RenameCategory(ctx, id, name)
	if err != nil {
		return b.sendError(ctx, chatID, "Rename category", err)
	}
	return b.sendText(chatID, fmt.Sprintf("📂 Category #%d is now %s.", category.ID, escape(category.Name)))
}

// handleDeleteCategory asks for confirmation, showing how many notes will
// move to the default category.
func (b *Bot) handleDeleteCategory(ctx context.Context, chatID int64, args string) error {
	id, err := parseID(args)
	if err != nil {
		return b.sendText(chatID, "Give the category number: /deletecategory 2")
	}
	plan, err := b.svc.Categories.PlanDeleteCategory(ctx, id)
	if err != nil {
		return b.sendError(ctx, chatID, "Delete category", err)
	}
	b.setPendingDelete(chatID, id)

	text := fmt.Sprintf("🗑 Delete category %s?", escape(plan.Category.Name))
	if plan.AffectedNotes > 0 {
		text += fmt.Sprintf("\n%d note(s) will move to the default category.", plan.AffectedNotes)
	}
	return b.sendWithReplyMarkup(chatID, text, confirmDeleteKeyboard(id))
}

func (b *Bot) confirmDeleteCategory(ctx context.Context, chatID int64, id uint) error {
	pending, ok := b.pendingDelete(chatID)
	if !ok || pending != id {
		return b.sendText(chatID, "That confirmation has expired. Send /deletecategory again.")
	}
	b.setPendingDelete(chatID, 0)

	moved, err := b.svc.Categories.DeleteCategory(ctx, id)
	if err != nil {
		return b.sendError(ctx, chatID, "Delete category", err)
	}
	return b.sendText(chatID, fmt.Sprintf("🗑 Category deleted, %d note(s) moved to the default category.", moved))
}
