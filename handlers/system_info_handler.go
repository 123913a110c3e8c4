package handlers

import (
	"fmt"
	"runtime"
	"time"

	"discord-moderator/moderation"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

const databaseSizeQuery = `SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`

func (d *dispatcher) handleSystemInfo(cc *commandContext) {
	if err := d.b.Gate.Authorize(cc.guild, cc.actor, moderation.ActionSystemInfo); err != nil {
		d.fail(cc, err)
		return
	}

	cpuCount, _ := cpu.Counts(true)
	cpuUsage := "-"
	if percent, err := cpu.Percent(0, false); err == nil && len(percent) > 0 {
		cpuUsage = fmt.Sprintf("%.1f%%", percent[0])
	}

	memory := "-"
	if vm, err := mem.VirtualMemory(); err == nil {
		memory = fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024)
	}

	platform, kernel := "-", "-"
	if hostInfo, err := host.Info(); err == nil {
		platform = fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion)
		kernel = hostInfo.KernelVersion
	}

	var dbBytes int64
	if err := d.b.GetDB().GetContext(cc.ctx, &dbBytes, databaseSizeQuery); err != nil {
		d.logger.Debug("Failed to read database size", zap.Error(err))
	}

	activeMutes, err := d.b.Store.CountByGuild(cc.ctx, cc.guild.ID)
	if err != nil {
		d.logger.Debug("Failed to count mutes", zap.Error(err))
	}

	uptime := "-"
	if !d.b.StartedAt.IsZero() {
		uptime = time.Since(d.b.StartedAt).Truncate(time.Second).String()
	}

	embed := &discordgo.MessageEmbed{
		Title: "معلومات النظام",
		Color: 0x5865F2, // Discord Blurple
		Fields: []*discordgo.MessageEmbedField{
			{Name: "💻 نظام التشغيل", Value: platform, Inline: true},
			{Name: "🔧 النواة", Value: kernel, Inline: true},
			{Name: "🐹 إصدار Go", Value: runtime.Version(), Inline: true},
			{Name: "🔼 عدد المعالجات", Value: fmt.Sprintf("%d", cpuCount), Inline: true},
			{Name: "🔥 استخدام المعالج", Value: cpuUsage, Inline: true},
			{Name: "🧠 الذاكرة", Value: memory, Inline: true},
			{Name: "🗃️ حجم قاعدة البيانات", Value: fmt.Sprintf("%d KB", dbBytes/1024), Inline: true},
			{Name: "⏱️ زمن الاستجابة", Value: cc.s.HeartbeatLatency().String(), Inline: true},
			{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
			{Name: "🔇 إسكات نشط", Value: fmt.Sprintf("%d", activeMutes), Inline: true},
			{Name: "⏳ مؤقتات معلقة", Value: fmt.Sprintf("%d", d.b.Sanctions.Len()), Inline: true},
			{Name: "🕒 مدة التشغيل", Value: uptime, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("مراقبة النظام・%s", time.Now().Format("15:04")),
		},
	}

	d.b.Replier.Embed(cc.msg.ChannelID, embed)
}
