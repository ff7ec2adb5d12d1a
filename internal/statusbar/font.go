package statusbar

import (
	"log/slog"
	"unicode/utf8"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// fontMetrics holds per-character advance widths for an 8-bit font.
type fontMetrics struct {
	first    int
	widths   []int
	fallback int
}

func queryMetrics(conn *xgb.Conn, font xproto.Font, logger *slog.Logger) fontMetrics {
	reply, err := xproto.QueryFont(conn, xproto.Fontable(font)).Reply()
	if err != nil {
		logger.Debug("font query failed, using fixed character width", "error", err)
		return fontMetrics{fallback: fallbackCharSize}
	}

	m := fontMetrics{
		first:    int(reply.MinCharOrByte2),
		fallback: int(reply.MaxBounds.CharacterWidth),
	}
	if m.fallback <= 0 {
		m.fallback = fallbackCharSize
	}
	// Monospaced fonts may send no per-character table at all.
	if len(reply.CharInfos) > 0 {
		m.widths = make([]int, len(reply.CharInfos))
		for i, info := range reply.CharInfos {
			m.widths[i] = int(info.CharacterWidth)
		}
	}
	return m
}

func (m fontMetrics) textWidth(s string) int {
	total := 0
	for i := 0; i < len(s); i++ {
		idx := int(s[i]) - m.first
		if idx >= 0 && idx < len(m.widths) && m.widths[idx] > 0 {
			total += m.widths[idx]
			continue
		}
		total += m.fallback
	}
	return total
}

// truncateText cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	i := limit
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return s[:i]
}
