package engine

import (
	"github.com/pion/webrtc/v4"
	"github.com/pkg/errors"

	"github.com/1ureka/peercall/internal/media"
)

// fromICECandidate stamps a pion candidate with the gatherer's credentials.
func fromICECandidate(c *webrtc.ICECandidate, params webrtc.ICEParameters) media.Candidate {
	return media.Candidate{
		Foundation:     c.Foundation,
		Component:      c.Component,
		Protocol:       c.Protocol.String(),
		Priority:       c.Priority,
		Address:        c.Address,
		Port:           c.Port,
		Type:           c.Typ.String(),
		RelatedAddress: c.RelatedAddress,
		RelatedPort:    c.RelatedPort,
		Username:       params.UsernameFragment,
		Password:       params.Password,
	}
}

func toICECandidate(c media.Candidate) (webrtc.ICECandidate, error) {
	proto, err := webrtc.NewICEProtocol(c.Protocol)
	if err != nil {
		return webrtc.ICECandidate{}, errors.Wrapf(media.ErrEngineRejected, "candidate %s: %v", c, err)
	}
	typ, err := webrtc.NewICECandidateType(c.Type)
	if err != nil {
		return webrtc.ICECandidate{}, errors.Wrapf(media.ErrEngineRejected, "candidate %s: %v", c, err)
	}
	return webrtc.ICECandidate{
		Foundation:     c.Foundation,
		Priority:       c.Priority,
		Address:        c.Address,
		Protocol:       proto,
		Port:           c.Port,
		Typ:            typ,
		Component:      c.Component,
		RelatedAddress: c.RelatedAddress,
		RelatedPort:    c.RelatedPort,
	}, nil
}

// remoteParameters returns the first ICE credentials carried by the batch.
func remoteParameters(batch []media.Candidate) (webrtc.ICEParameters, bool) {
	for _, c := range batch {
		if c.Username != "" && c.Password != "" {
			return webrtc.ICEParameters{UsernameFragment: c.Username, Password: c.Password}, true
		}
	}
	return webrtc.ICEParameters{}, false
}
