package handlers

import (
	"errors"
	"fmt"
	"time"

	"discord-moderator/commands"
	"discord-moderator/moderation"
	"discord-moderator/utils"

	"github.com/bwmarrin/discordgo"
)

// Replies shown to the invoking user. The replier adds the ❌ prefix.
const (
	msgNoPermission   = "ليس لديك صلاحيات كافية لاستخدام هذا الأمر"
	msgMentionMember  = "يرجى منشن العضو"
	msgMemberNotFound = "لم يتم العثور على العضو"
	msgTargetBot      = "لا يمكن التصرف مع البوتات"
	msgTargetSelf     = "لا يمكنك التصرف مع نفسك"
	msgTargetAdmin    = "لا يمكن التصرف مع المشرفين"
	msgInvalidAmount  = "يرجى تحديد عدد بين 1 و 100"
	msgStatusOthers   = "لا يمكنك التحقق من حالة إسكات الآخرين"
	msgAdminOnly      = "هذا القسم للمشرفين فقط"
	msgRoleSetup      = "تعذر إعداد دور الإسكات، تحقق من صلاحيات البوت"
	msgTransient      = "تعذر الوصول إلى ديسكورد، حاول مرة أخرى لاحقاً"
	msgGeneric        = "حدث خطأ في تنفيذ الأمر"

	unknownActor = "غير معروف"
)

// userMessage maps a moderation error onto the reply shown to the invoking user.
func userMessage(err error, target *discordgo.Member) string {
	var targetErr *moderation.TargetError
	switch {
	case errors.As(err, &targetErr):
		switch targetErr.Reason {
		case moderation.TargetIsBot:
			return msgTargetBot
		case moderation.TargetIsSelf:
			return msgTargetSelf
		case moderation.TargetIsAdministrator:
			return msgTargetAdmin
		default:
			return msgMemberNotFound
		}
	case errors.Is(err, moderation.ErrPermissionDenied):
		return msgNoPermission
	case errors.Is(err, moderation.ErrTargetNotSanctioned):
		return fmt.Sprintf("%s غير مكتوم أصلاً", mention(target))
	case errors.Is(err, moderation.ErrInvalidAmount):
		return msgInvalidAmount
	case errors.Is(err, moderation.ErrRoleCreationFailed):
		return msgRoleSetup
	case errors.Is(err, moderation.ErrTransient):
		return msgTransient
	default:
		return msgGeneric
	}
}

// expectedError reports errors caused by the invoker rather than by the bot or Discord.
func expectedError(err error) bool {
	return errors.Is(err, moderation.ErrTargetInvalid) ||
		errors.Is(err, moderation.ErrTargetNotSanctioned) ||
		errors.Is(err, moderation.ErrInvalidAmount) ||
		errors.Is(err, moderation.ErrPermissionDenied)
}

func mention(m *discordgo.Member) string {
	if m == nil || m.User == nil {
		return "العضو"
	}
	return m.User.Mention()
}

func muteEmbed(target, actor *discordgo.Member, sanction *moderation.Sanction) *discordgo.MessageEmbed {
	minutes := utils.FormatMinutes(sanction.Duration)
	return &discordgo.MessageEmbed{
		Title:       "✅ تم الإسكات بنجاح",
		Description: "تم إسكات " + mention(target),
		Color:       commands.ColorDanger,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "السبب", Value: sanction.Reason, Inline: true},
			{Name: "المدة", Value: minutes, Inline: true},
			{Name: "بواسطة", Value: mention(actor), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "سيتم إلغاء الإسكات تلقائياً بعد " + minutes,
		},
	}
}

// mutedNoticeEmbed is sent privately to the muted member.
func mutedNoticeEmbed(guild *discordgo.Guild, sanction *moderation.Sanction) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔇 تم إسكاتك",
		Description: "تم إسكاتك في " + guild.Name,
		Color:       commands.ColorDanger,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "السبب", Value: sanction.Reason, Inline: true},
			{Name: "المدة", Value: utils.FormatMinutes(sanction.Duration), Inline: true},
		},
	}
}

func unmuteEmbed(target, actor *discordgo.Member) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "✅ تم إلغاء الإسكات",
		Description: "تم إلغاء إسكات " + mention(target),
		Color:       commands.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "بواسطة", Value: mention(actor), Inline: true},
		},
	}
}

// statusEmbed renders a member's mute status. A nil sanction means not muted.
func statusEmbed(member *discordgo.Member, sanction *moderation.Sanction, now time.Time) *discordgo.MessageEmbed {
	if sanction == nil {
		return &discordgo.MessageEmbed{
			Title:       "🔊 حالة الإسكات",
			Description: mention(member) + " غير مكتوم",
			Color:       commands.ColorSuccess,
		}
	}

	muter := unknownActor
	switch {
	case sanction.ActorID != "":
		muter = "<@" + sanction.ActorID + ">"
	case sanction.ActorName != "":
		muter = sanction.ActorName
	}

	return &discordgo.MessageEmbed{
		Title:       "🔇 حالة الإسكات",
		Description: mention(member) + " مكتوم",
		Color:       commands.ColorDanger,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "السبب", Value: sanction.Reason, Inline: true},
			{Name: "بواسطة", Value: muter, Inline: true},
			{Name: "الوقت المتبقي", Value: utils.FormatRemaining(sanction.Remaining(now)), Inline: true},
		},
	}
}

func banEmbed(target, actor *discordgo.Member, reason string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔨 تم الحظر بنجاح",
		Description: "تم حظر " + mention(target),
		Color:       commands.ColorBan,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "السبب", Value: reason, Inline: true},
			{Name: "بواسطة", Value: mention(actor), Inline: true},
		},
	}
}

func kickEmbed(target, actor *discordgo.Member, reason string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "👢 تم الطرد بنجاح",
		Description: "تم طرد " + mention(target),
		Color:       commands.ColorWarning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "السبب", Value: reason, Inline: true},
			{Name: "بواسطة", Value: mention(actor), Inline: true},
		},
	}
}

func purgeEmbed(deleted int, actor *discordgo.Member) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🗑️ تم الحذف بنجاح",
		Description: fmt.Sprintf("تم حذف %d رسالة", deleted),
		Color:       commands.ColorSuccess,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "بواسطة", Value: mention(actor), Inline: true},
		},
	}
}
