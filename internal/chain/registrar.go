package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/dugtrio-labs/dugtrio/internal/models"
	"github.com/dugtrio-labs/dugtrio/internal/wallet"
)

// Report is the sentiment snapshot written on-chain.
type Report struct {
	Project   string  `json:"project"`
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Timestamp int64   `json:"timestamp"`
	Generator string  `json:"generator"`
	Note      string  `json:"note"`
}

// Registration is the outcome of a RegisterReport call. Confirmed is
// false when the transaction was accepted but confirmation timed out;
// the signature is still valid in that case.
type Registration struct {
	Name        string `json:"name"`
	TxHash      string `json:"tx_hash"`
	ExplorerURL string `json:"explorer_url"`
	Confirmed   bool   `json:"confirmed"`
}

// Registrar anchors sentiment reports on Solana via memo transactions.
type Registrar struct {
	wallet         *wallet.Wallet
	confirmTimeout time.Duration
	logger         *logrus.Logger
}

// RegistrarConfig holds configuration for the registrar.
type RegistrarConfig struct {
	Wallet *wallet.Wallet
	// ConfirmTimeout bounds the wait for on-chain confirmation.
	// Defaults to 30 seconds.
	ConfirmTimeout time.Duration
	Logger         *logrus.Logger
}

func NewRegistrar(cfg RegistrarConfig) (*Registrar, error) {
	if cfg.Wallet == nil {
		return nil, fmt.Errorf("registrar: wallet is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 30 * time.Second
	}

	return &Registrar{
		wallet:         cfg.Wallet,
		confirmTimeout: cfg.ConfirmTimeout,
		logger:         cfg.Logger,
	}, nil
}

// ReportFromSummary builds the on-chain payload for a project aggregate.
func ReportFromSummary(summary *models.SentimentSummary) *Report {
	return &Report{
		Project:   summary.ProjectTag,
		Sentiment: summary.Label,
		Score:     summary.Score,
		Timestamp: summary.GeneratedAt.Unix(),
		Generator: "DugTrio",
		Note:      fmt.Sprintf("Aggregated from %d posts", summary.SampleCount),
	}
}

// ReportName is the human-readable title used for a registration. The
// cashtag is uppercased even though project tags are stored lowercase.
func ReportName(report *Report) string {
	return fmt.Sprintf("DugTrio Sentiment: $%s - %s",
		strings.ToUpper(report.Project),
		time.Unix(report.Timestamp, 0).UTC().Format(time.RFC3339),
	)
}

// RegisterReport sends the report as a memo transaction. The signature
// is returned even when confirmation does not arrive inside the
// timeout, so callers can surface the pending transaction.
func (r *Registrar) RegisterReport(ctx context.Context, report *Report) (*Registration, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	memo := solana.NewInstruction(
		solana.MemoProgramID,
		[]*solana.AccountMeta{
			{PublicKey: r.wallet.PublicKey(), IsWritable: false, IsSigner: true},
		},
		payload,
	)

	sig, err := r.wallet.SignAndSend(ctx, []solana.Instruction{memo}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to send registration: %w", err)
	}

	log := r.logger.WithFields(logrus.Fields{
		"project": report.Project,
		"tx":      sig,
	})
	log.Info("submitted sentiment report")

	registration := &Registration{
		Name:        ReportName(report),
		TxHash:      sig,
		ExplorerURL: "https://solscan.io/tx/" + sig,
		Confirmed:   true,
	}

	if err := r.wallet.ConfirmTransaction(ctx, sig, "confirmed", r.confirmTimeout); err != nil {
		// The transaction may still land; report it as pending.
		log.WithError(err).Warn("confirmation not observed")
		registration.Confirmed = false
	}

	return registration, nil
}
