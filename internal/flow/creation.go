package flow

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/stockbot/core/logger"
	"github.com/m3rciful/stockbot/core/telegram/keyboard"
	"github.com/m3rciful/stockbot/internal/product"
)

const createComponent = "flow.create"

// Skip is the sentinel for "no value" on optional steps.
const Skip = "-"

// Step is the wizard cursor. Steps run strictly in declaration order.
type Step int

const (
	StepName Step = iota + 1
	StepDescription
	StepSKU
	StepUnitPrice
	StepSellingPrice
	StepUnit
	StepCategory
	StepImage
	StepCommit
)

var stepNames = map[Step]string{
	StepName:         "name",
	StepDescription:  "description",
	StepSKU:          "sku",
	StepUnitPrice:    "unit_price",
	StepSellingPrice: "selling_price",
	StepUnit:         "unit",
	StepCategory:     "category",
	StepImage:        "image",
	StepCommit:       "commit",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var prompts = map[Step]string{
	StepName:         "Please enter product name:",
	StepDescription:  `📝 Enter product description (or type "-" to skip):`,
	StepSKU:          "🏷️ Enter product SKU (letters, digits, - and _ only):",
	StepUnitPrice:    "💰 Enter unit price (purchase cost):",
	StepSellingPrice: "💵 Enter selling price:",
	StepUnit:         "📏 Enter unit (e.g., pcs, kg, box):",
	StepCategory:     `📁 Enter category (or "-" to skip):`,
	StepImage:        `🖼️ Send product image or type "-" to skip:`,
}

// Messages sent outside the step prompts.
const (
	MsgStart         = "🆕 *Add New Product*\n\n"
	MsgCreated       = "✅ *Product Added Successfully\\!*\n\n"
	MsgSaveFailed    = "❌ Failed to save product. Please try again or contact support."
	MsgImageFailed   = "⚠️ Failed to upload image. Continuing without image..."
	MsgCancelled     = "❌ Product creation cancelled."
	msgNeedText      = "⚠️ Please send text."
	msgNeedName      = "⚠️ Please enter a valid product name."
	msgBadSKU        = "⚠️ Invalid SKU format. Use only letters, numbers, dashes and underscores (max %d)."
	msgSKUTaken      = "⚠️ This SKU already exists. Please choose a different one."
	msgBadPrice      = "⚠️ Invalid price. Please enter a non-negative number, e.g. 120 or 99.50."
	msgSellingTooLow = "⚠️ Selling price cannot be less than unit price (%s)."
	msgNeedImage     = "⚠️ Please send an image or type '-' to skip."
)

// Draft accumulates product fields. Prices stay nil until accepted.
type Draft struct {
	Name         string
	Description  *string
	SKU          string
	UnitPrice    *decimal.Decimal
	SellingPrice *decimal.Decimal
	Unit         string
	Category     *string
	ImageURL     *string
}

// Session is one user's wizard run.
type Session struct {
	Step  Step
	Draft Draft
	// Done is set once the commit step ran, whatever its outcome.
	Done bool
}

// PhotoSize is one resolution variant of an inbound photo.
type PhotoSize struct {
	FileID string
	Width  int
	Height int
}

// Input is the part of an inbound message the wizard looks at.
type Input struct {
	Text    string
	HasText bool
	Photos  []PhotoSize
}

// Largest returns the highest-resolution variant.
func (in Input) Largest() (PhotoSize, bool) {
	if len(in.Photos) == 0 {
		return PhotoSize{}, false
	}
	best := in.Photos[0]
	for _, p := range in.Photos[1:] {
		if p.Width*p.Height > best.Width*best.Height {
			best = p
		}
	}
	return best, best.FileID != ""
}

// Directory is the product store as seen by the wizard.
type Directory interface {
	GetBySKU(ctx context.Context, sku string) (*product.ProductWithInventory, error)
	Create(ctx context.Context, in product.CreateInput) (*product.Product, error)
}

// ImageResolver turns a chat file id into a durable image reference.
type ImageResolver interface {
	ResolveImage(ctx context.Context, fileID string) (string, error)
}

// Wizard drives the product creation conversation.
type Wizard struct {
	dir    Directory
	images ImageResolver
	fmt    Formatter
}

// NewWizard builds a wizard. images may be nil, in which case photos are
// rejected as unresolvable and the product is saved without an image.
func NewWizard(dir Directory, images ImageResolver, f Formatter) *Wizard {
	return &Wizard{dir: dir, images: images, fmt: f}
}

// Start opens a session on the name step.
func (w *Wizard) Start() (*Session, Reply) {
	return &Session{Step: StepName}, Reply{
		Kind:       Send,
		Text:       MsgStart + prompts[StepName],
		Markdown:   true,
		ForceReply: true,
	}
}

// Handle consumes one inbound message. A rejected input leaves the session
// untouched and re-renders the current prompt.
func (w *Wizard) Handle(ctx context.Context, s *Session, in Input) []Reply {
	if s == nil || s.Done {
		return nil
	}
	text := strings.TrimSpace(in.Text)

	if s.Step != StepImage && !in.HasText {
		return w.reprompt(ctx, s, needText(s.Step))
	}

	switch s.Step {
	case StepName:
		if text == "" {
			return w.reprompt(ctx, s, msgNeedName)
		}
		s.Draft.Name = text

	case StepDescription:
		s.Draft.Description = optional(text)

	case StepSKU:
		if !product.ValidSKU(text) {
			return w.reprompt(ctx, s, fmt.Sprintf(msgBadSKU, product.MaxSKULength))
		}
		existing, err := w.dir.GetBySKU(ctx, text)
		if err != nil {
			// lookup failures must not block the operator; the unique
			// constraint still rejects a real duplicate at commit
			logger.Warn(ctx, createComponent, "sku.check.fail",
				slog.String("sku", text),
				slog.String("err", err.Error()),
			)
		} else if existing != nil {
			return w.reprompt(ctx, s, msgSKUTaken)
		}
		s.Draft.SKU = text

	case StepUnitPrice:
		price, ok := ParsePrice(text)
		if !ok {
			return w.reprompt(ctx, s, msgBadPrice)
		}
		s.Draft.UnitPrice = &price

	case StepSellingPrice:
		price, ok := ParsePrice(text)
		if !ok {
			return w.reprompt(ctx, s, msgBadPrice)
		}
		if s.Draft.UnitPrice != nil && price.LessThan(*s.Draft.UnitPrice) {
			return w.reprompt(ctx, s, fmt.Sprintf(msgSellingTooLow, w.fmt.Price(*s.Draft.UnitPrice)))
		}
		s.Draft.SellingPrice = &price

	case StepUnit:
		if text == "" {
			return w.reprompt(ctx, s, msgNeedText)
		}
		s.Draft.Unit = text

	case StepCategory:
		s.Draft.Category = optional(text)

	case StepImage:
		return w.handleImage(ctx, s, in, text)

	default:
		return nil
	}

	s.Step++
	logger.Debug(ctx, createComponent, "step.advance", slog.String("step", s.Step.String()))
	return []Reply{w.prompt(s.Step)}
}

func (w *Wizard) handleImage(ctx context.Context, s *Session, in Input, text string) []Reply {
	var replies []Reply
	if photo, ok := in.Largest(); ok {
		ref, err := w.resolve(ctx, photo.FileID)
		if err != nil {
			logger.Warn(ctx, createComponent, "image.resolve.fail",
				slog.String("sku", s.Draft.SKU),
				slog.String("err", err.Error()),
			)
			replies = append(replies, send(MsgImageFailed))
		} else {
			s.Draft.ImageURL = &ref
		}
	} else if !in.HasText || text != Skip {
		return w.reprompt(ctx, s, msgNeedImage)
	}

	s.Step = StepCommit
	return append(replies, w.commit(ctx, s))
}

func (w *Wizard) resolve(ctx context.Context, fileID string) (string, error) {
	if w.images == nil {
		return "", fmt.Errorf("image resolver not configured")
	}
	return w.images.ResolveImage(ctx, fileID)
}

// commit writes the draft exactly once and ends the session.
func (w *Wizard) commit(ctx context.Context, s *Session) Reply {
	s.Done = true
	d := s.Draft
	if d.UnitPrice == nil || d.SellingPrice == nil {
		logger.Error(ctx, createComponent, "commit.incomplete", slog.String("sku", d.SKU))
		return send(MsgSaveFailed)
	}

	created, err := w.dir.Create(ctx, product.CreateInput{
		Name:         d.Name,
		Description:  d.Description,
		SKU:          d.SKU,
		UnitPrice:    *d.UnitPrice,
		SellingPrice: *d.SellingPrice,
		Unit:         d.Unit,
		Category:     d.Category,
		ImageURL:     d.ImageURL,
	})
	if err != nil {
		logger.Error(ctx, createComponent, "commit.fail",
			slog.String("sku", d.SKU),
			slog.String("err", err.Error()),
		)
		return send(MsgSaveFailed)
	}

	logger.Info(ctx, createComponent, "commit.ok", slog.String("sku", created.SKU))
	return Reply{
		Kind:     Send,
		Text:     MsgCreated + w.fmt.Details(product.ProductWithInventory{Product: *created}),
		Markdown: true,
		Buttons:  [][]keyboard.Button{{button("📦 Add Stock", StockAdd{SKU: created.SKU})}},
	}
}

func (w *Wizard) prompt(step Step) Reply {
	return Reply{Kind: Send, Text: prompts[step], ForceReply: true}
}

func (w *Wizard) reprompt(ctx context.Context, s *Session, warning string) []Reply {
	logger.Debug(ctx, createComponent, "step.reprompt", slog.String("step", s.Step.String()))
	r := w.prompt(s.Step)
	r.Text = warning + "\n\n" + r.Text
	return []Reply{r}
}

func needText(step Step) string {
	if step == StepName {
		return msgNeedName
	}
	return msgNeedText
}

func optional(text string) *string {
	if text == Skip || text == "" {
		return nil
	}
	return &text
}

var priceRe = regexp.MustCompile(`^\d{1,10}(\.\d{1,2})?$`)

// ParsePrice accepts plain non-negative decimals with at most two fraction digits.
func ParsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if !priceRe.MatchString(s) {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
