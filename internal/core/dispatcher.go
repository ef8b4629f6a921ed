package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"swasthyasathi/internal/keylock"
	"swasthyasathi/internal/metrics"
	"swasthyasathi/pkg"
)

// ResetCommand deletes the sender's profile from any step.
const ResetCommand = "reset profile"

// MessageDeduper remembers inbound message ids so webhook redeliveries are
// handled once.
type MessageDeduper interface {
	// FirstSeen reports true the first time id is offered.
	FirstSeen(ctx context.Context, id string) (bool, error)
}

// Dispatcher routes an inbound message to onboarding, the image attachment
// handling, or the chat pipeline.  Messages from one sender are handled one at
// a time.
type Dispatcher struct {
	store      ProfileStore
	notifier   Notifier
	media      MediaResolver
	onboarding *Onboarding
	chat       *ChatPipeline
	catalog    *Catalog
	dedupe     MessageDeduper
	locks      *keylock.KeyedMutex
	logger     *zap.Logger
}

// DispatcherDeps groups the dispatcher's collaborators.  Dedupe is optional.
type DispatcherDeps struct {
	Store      ProfileStore
	Notifier   Notifier
	Media      MediaResolver
	Onboarding *Onboarding
	Chat       *ChatPipeline
	Catalog    *Catalog
	Dedupe     MessageDeduper
	Logger     *zap.Logger
}

func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Dispatcher{
		store:      deps.Store,
		notifier:   deps.Notifier,
		media:      deps.Media,
		onboarding: deps.Onboarding,
		chat:       deps.Chat,
		catalog:    catalog,
		dedupe:     deps.Dedupe,
		locks:      keylock.New(),
		logger:     logger,
	}
}

// IsResetCommand matches the reset command ignoring case and surrounding
// whitespace.
func IsResetCommand(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), ResetCommand)
}

// Handle processes one inbound message.  It never panics and never returns an
// error: failures are logged and answered with an apology.
func (d *Dispatcher) Handle(ctx context.Context, msg pkg.InboundMessage) {
	log := d.logger.With(
		zap.String("phone", msg.From),
		zap.String("message_id", msg.ID),
		zap.String("kind", string(msg.Kind)),
		zap.String("trace_id", uuid.NewString()),
	)
	if strings.TrimSpace(msg.From) == "" {
		log.Warn("dropping message without sender")
		return
	}
	if d.dedupe != nil && msg.ID != "" {
		first, err := d.dedupe.FirstSeen(ctx, msg.ID)
		if err != nil {
			log.Warn("message dedupe unavailable, processing anyway", zap.Error(err))
		} else if !first {
			metrics.DuplicateMessage()
			log.Debug("dropping redelivered message")
			return
		}
	}
	metrics.InboundMessage(string(msg.Kind))

	unlock := d.locks.Lock(msg.From)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic while handling message", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	if err := d.handle(ctx, msg); err != nil {
		log.Error("failed to handle message", zap.Error(err))
		if sendErr := d.notifier.SendText(ctx, msg.From, d.catalog.Text(WorkingLanguage, MsgGenericError)); sendErr != nil {
			log.Warn("failed to send apology", zap.Error(sendErr))
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg pkg.InboundMessage) error {
	if msg.Kind == pkg.KindText && IsResetCommand(msg.Text) {
		return d.reset(ctx, msg.From)
	}

	p, err := d.store.Get(ctx, msg.From)
	if errors.Is(err, ErrProfileNotFound) {
		p, err = d.store.Create(ctx, msg.From)
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		d.logger.Info("new user", zap.String("phone", msg.From))
		return d.onboarding.SendStartMenu(ctx, p)
	}
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	switch {
	case msg.Kind == pkg.KindImage:
		return d.handleImage(ctx, p, msg)
	case msg.Kind == pkg.KindText && p.PendingMediaID != "":
		return d.handlePendingImage(ctx, p, msg)
	case p.OnboardingComplete():
		return d.handleChat(ctx, p, msg)
	default:
		d.onboarding.Handle(ctx, p, msg)
		return nil
	}
}

func (d *Dispatcher) reset(ctx context.Context, phone string) error {
	lang := WorkingLanguage
	if p, err := d.store.Get(ctx, phone); err == nil && p.NativeLanguage != "" {
		lang = p.NativeLanguage
	}
	deleted, err := d.store.Delete(ctx, phone)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	d.logger.Info("profile reset", zap.String("phone", phone), zap.Bool("existed", deleted))
	return d.notifier.SendText(ctx, phone, d.catalog.Text(lang, MsgResetDone))
}

// handleImage records the image as pending, replacing any earlier one, and
// asks for a caption.
func (d *Dispatcher) handleImage(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	if msg.MediaID == "" {
		return d.notifier.SendText(ctx, p.Phone, d.text(p, MsgUnsupportedType))
	}
	mediaID := msg.MediaID
	if err := d.store.Update(ctx, p.Phone, pkg.ProfileUpdate{PendingMediaID: &mediaID}); err != nil {
		return fmt.Errorf("store pending media: %w", err)
	}
	if p.PendingMediaID != "" && p.PendingMediaID != mediaID {
		d.logger.Debug("pending image replaced", zap.String("phone", p.Phone))
	}
	p.PendingMediaID = mediaID
	return d.notifier.SendText(ctx, p.Phone, d.text(p, MsgImageReceived))
}

// handlePendingImage pairs a text with the previously received image and runs
// the chat pipeline with both.
func (d *Dispatcher) handlePendingImage(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	mediaID := p.PendingMediaID
	claimed, err := d.store.ClaimPendingMedia(ctx, p.Phone, mediaID)
	if err != nil {
		return fmt.Errorf("claim pending media: %w", err)
	}
	p.PendingMediaID = ""
	if !claimed {
		d.logger.Warn("pending image already consumed", zap.String("phone", p.Phone))
		if p.OnboardingComplete() {
			return d.handleChat(ctx, p, msg)
		}
		d.onboarding.Handle(ctx, p, msg)
		return nil
	}

	if d.media == nil {
		return d.imageUnavailable(ctx, p, errors.New("no media resolver configured"))
	}
	img, err := d.media.FetchMedia(ctx, mediaID)
	if err != nil {
		return d.imageUnavailable(ctx, p, err)
	}
	d.chat.Run(ctx, p, msg.Text, img)
	return nil
}

func (d *Dispatcher) imageUnavailable(ctx context.Context, p *pkg.UserProfile, cause error) error {
	d.logger.Warn("failed to resolve pending image", zap.String("phone", p.Phone), zap.Error(cause))
	metrics.ChatPipeline(metrics.OutcomeMediaError)
	return d.notifier.SendText(ctx, p.Phone, d.text(p, MsgImageFetchFailed))
}

func (d *Dispatcher) handleChat(ctx context.Context, p *pkg.UserProfile, msg pkg.InboundMessage) error {
	if msg.Kind != pkg.KindText {
		return d.notifier.SendText(ctx, p.Phone, d.text(p, MsgUnsupportedType))
	}
	if strings.TrimSpace(msg.Text) == "" {
		return nil
	}
	d.chat.Run(ctx, p, msg.Text, nil)
	return nil
}

func (d *Dispatcher) text(p *pkg.UserProfile, key MsgKey) string {
	lang := p.NativeLanguage
	if lang == "" {
		lang = WorkingLanguage
	}
	return d.catalog.Text(lang, key)
}
