package commands

import "github.com/bwmarrin/discordgo"

// Embed colours shared by command replies.
const (
	ColorInfo    = 0x3498db
	ColorDanger  = 0xe74c3c
	ColorWarning = 0xe67e22
	ColorSuccess = 0x2ecc71
	ColorBan     = 0x992d22
)

const (
	HelpGeneralID = "help_general"
	HelpAdminID   = "help_admin"
)

func HelpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🤖 بوت الإدارة",
		Description: "مرحباً! أنا بوت إدارة متقدم مع ميزات تفاعلية",
		Color:       ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💡 كيف تستخدم البوت؟", Value: "اضغط على الأزرار أدناه لرؤية الأوامر المتاحة"},
		},
	}
}

func HelpComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "الأوامر العامة",
					Style:    discordgo.PrimaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "📋"},
					CustomID: HelpGeneralID,
				},
				discordgo.Button{
					Label:    "أوامر الإدارة",
					Style:    discordgo.DangerButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🛡️"},
					CustomID: HelpAdminID,
				},
			},
		},
	}
}

func GeneralHelpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "📋 الأوامر العامة",
		Description: "الأوامر المتاحة لجميع الأعضاء",
		Color:       ColorInfo,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "اسكاتي", Value: "عرض حالة الإسكات الخاصة بك"},
			{Name: "مساعدة", Value: "عرض قائمة الأوامر المتاحة"},
		},
	}
}

func AdminHelpEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🛡️ أوامر الإدارة",
		Description: "الأوامر المتاحة للمشرفين فقط",
		Color:       ColorDanger,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "اسكات @عضو", Value: "عرض خيارات الإسكات"},
			{Name: "اسكت @عضو سبب", Value: "إسكات مباشر"},
			{Name: "تكلم @عضو", Value: "إلغاء الإسكات"},
			{Name: "اسكاتي @عضو", Value: "عرض حالة إسكات عضو"},
			{Name: "باند @عضو سبب", Value: "حظر العضو"},
			{Name: "كيك @عضو سبب", Value: "طرد العضو"},
			{Name: "مسح عدد", Value: "حذف الرسائل (1 إلى 100)"},
			{Name: "حالة", Value: "معلومات النظام والبوت"},
		},
	}
}
