package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesObserved = promauto.NewCounter(prometheus.CounterOpts{
	Name: "botto_messages_observed",
	Help: "Number of inbound messages fed to the spam tracker",
})

var spamFlagged = promauto.NewCounter(prometheus.CounterOpts{
	Name: "botto_spam_flagged",
	Help: "Number of duplicate-message bursts flagged as spam",
})

var spamDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botto_spam_deletes",
	Help: "Spam message deletions by result",
}, []string{"result"})

var roleChanges = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botto_role_changes",
	Help: "Reaction role grants and revokes by result",
}, []string{"action", "result"})

var anchorsRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botto_anchors_registered",
	Help: "Anchor message registrations by result",
}, []string{"result"})

var nudgesSent = promauto.NewCounter(prometheus.CounterOpts{
	Name: "botto_nudges_sent",
	Help: "Number of idle-channel nudges posted",
})
