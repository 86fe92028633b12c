package engine

import (
	"maps"
	"slices"
	"strings"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/peercall/internal/media"
)

// defaultCodecs is the local preference order per media kind.
var defaultCodecs = map[media.Kind][]webrtc.RTPCodecParameters{
	media.KindAudio: {
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2, SDPFmtpLine: "minptime=10;useinbandfec=1"}, PayloadType: 111},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeG722, ClockRate: 8000}, PayloadType: 9},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMU, ClockRate: 8000}, PayloadType: 0},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMA, ClockRate: 8000}, PayloadType: 8},
	},
	media.KindVideo: {
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000}, PayloadType: 96},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP9, ClockRate: 90000, SDPFmtpLine: "profile-id=0"}, PayloadType: 98},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: 90000, SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42001f"}, PayloadType: 102},
	},
}

func codecType(kind media.Kind) webrtc.RTPCodecType {
	if kind == media.KindVideo {
		return webrtc.RTPCodecTypeVideo
	}
	return webrtc.RTPCodecTypeAudio
}

// registerCodecs loads the default table of kind into m and returns it in
// media form.
func registerCodecs(m *webrtc.MediaEngine, kind media.Kind) ([]media.Codec, error) {
	table := defaultCodecs[kind]
	out := make([]media.Codec, 0, len(table))
	for _, p := range table {
		if err := m.RegisterCodec(p, codecType(kind)); err != nil {
			return nil, err
		}
		out = append(out, fromRTPCodec(p))
	}
	return out, nil
}

// fromRTPCodec converts pion codec parameters, e.g. "audio/opus" with fmtp
// "minptime=10;useinbandfec=1", into a media.Codec named "opus".
func fromRTPCodec(p webrtc.RTPCodecParameters) media.Codec {
	name := p.MimeType
	if i := strings.IndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return media.Codec{
		ID:        int(p.PayloadType),
		Name:      name,
		ClockRate: p.ClockRate,
		Channels:  p.Channels,
		Params:    parseFmtp(p.SDPFmtpLine),
	}
}

// parseFmtp splits an fmtp line into key/value pairs. Keys without a value
// map to "".
func parseFmtp(line string) map[string]string {
	if strings.TrimSpace(line) == "" {
		return nil
	}
	params := make(map[string]string)
	for _, part := range strings.Split(line, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, _ := strings.Cut(part, "=")
		params[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return params
}

// codecsNeedResend reports whether current must be announced again: nothing
// was sent yet, the payload ids changed, or parameters changed under an id.
func codecsNeedResend(previous, current []media.Codec) bool {
	if previous == nil {
		return true
	}
	prev := make(map[int]media.Codec, len(previous))
	for _, c := range previous {
		prev[c.ID] = c
	}
	if len(prev) != len(current) {
		return true
	}
	for _, c := range current {
		p, ok := prev[c.ID]
		if !ok || !maps.Equal(p.Params, c.Params) {
			return true
		}
	}
	return false
}

// negotiate keeps the remote codecs, in remote order and with remote payload
// ids, that match one of the local codecs.
func negotiate(local, remote []media.Codec) []media.Codec {
	var out []media.Codec
	for _, r := range remote {
		if slices.ContainsFunc(local, r.Matches) {
			out = append(out, r.Clone())
		}
	}
	return out
}

// moveToFront returns codecs with the entry of payload id first.
func moveToFront(codecs []media.Codec, id int) ([]media.Codec, bool) {
	i := slices.IndexFunc(codecs, func(c media.Codec) bool { return c.ID == id })
	if i < 0 {
		return codecs, false
	}
	out := make([]media.Codec, 0, len(codecs))
	out = append(out, codecs[i])
	out = append(out, codecs[:i]...)
	out = append(out, codecs[i+1:]...)
	return out, true
}
