package content

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Payload is the tagged union carried by a Record. Each content kind has one
// concrete payload type.
type Payload interface {
	ContentType() Type
	Validate() error
}

// Sluggable is implemented by collection payloads addressable by slug.
type Sluggable interface {
	SlugValue() string
}

// SlugSetter is implemented by pointers to sluggable payloads.
type SlugSetter interface {
	SetSlug(string)
}

// Titled is implemented by payloads whose title can seed a slug.
type Titled interface {
	TitleValue() string
}

// Publishable is implemented by payloads with a publication flag. Payloads
// without it are always treated as published.
type Publishable interface {
	IsPublished() bool
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var slugRule = validation.By(func(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !IsValidSlug(s) {
		return errors.New("must be a lowercase URL-safe slug")
	}
	return nil
})

// Highlight is a short selling point shown on the home page.
type Highlight struct {
	Icon        string `json:"icon,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// HomeContent backs the landing page.
type HomeContent struct {
	HeroTitle    string      `json:"heroTitle"`
	HeroSubtitle string      `json:"heroSubtitle,omitempty"`
	CTALabel     string      `json:"ctaLabel,omitempty"`
	CTAURL       string      `json:"ctaUrl,omitempty"`
	Highlights   []Highlight `json:"highlights,omitempty"`
}

func (HomeContent) ContentType() Type { return TypeHome }

func (p HomeContent) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.HeroTitle, validation.Required, validation.Length(1, 160)),
		validation.Field(&p.CTAURL, validation.When(p.CTALabel != "", validation.Required)),
	)
}

// Milestone is an entry in the consultant's timeline.
type Milestone struct {
	Year        int    `json:"year"`
	Description string `json:"description"`
}

// AboutContent backs the about page.
type AboutContent struct {
	Title      string      `json:"title"`
	Bio        string      `json:"bio"`
	PhotoURL   string      `json:"photoUrl,omitempty"`
	Milestones []Milestone `json:"milestones,omitempty"`
}

func (AboutContent) ContentType() Type { return TypeAbout }

func (p AboutContent) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Bio, validation.Required),
	)
}

// ServiceOffering is one service sold by the consultant.
type ServiceOffering struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
	ProductURL  string `json:"productUrl,omitempty"`
}

// ServicesContent backs the services page.
type ServicesContent struct {
	Title    string            `json:"title"`
	Intro    string            `json:"intro,omitempty"`
	Services []ServiceOffering `json:"services,omitempty"`
}

func (ServicesContent) ContentType() Type { return TypeServices }

func (p ServicesContent) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Services, validation.By(func(any) error {
			for _, svc := range p.Services {
				if svc.Name == "" {
					return errors.New("every service needs a name")
				}
			}
			return nil
		})),
	)
}

// ContactContent backs the contact page.
type ContactContent struct {
	Title    string `json:"title"`
	Intro    string `json:"intro,omitempty"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
	Address  string `json:"address,omitempty"`
}

func (ContactContent) ContentType() Type { return TypeContact }

func (p ContactContent) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Email, validation.Required, validation.Match(emailPattern)),
	)
}

// GlobalSettings holds site-wide values rendered on every page.
type GlobalSettings struct {
	SiteName   string            `json:"siteName"`
	Tagline    string            `json:"tagline,omitempty"`
	FooterText string            `json:"footerText,omitempty"`
	Social     map[string]string `json:"social,omitempty"`
}

func (GlobalSettings) ContentType() Type { return TypeGlobal }

func (p GlobalSettings) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.SiteName, validation.Required, validation.Length(1, 80)),
	)
}

// BlogArticle is a post in the blog collection.
type BlogArticle struct {
	Title          string     `json:"title"`
	Slug           string     `json:"slug"`
	Excerpt        string     `json:"excerpt,omitempty"`
	Body           string     `json:"body,omitempty"`
	BodyHTML       string     `json:"bodyHtml,omitempty"`
	CoverImage     string     `json:"coverImage,omitempty"`
	Author         string     `json:"author,omitempty"`
	Category       string     `json:"category,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
	Published      bool       `json:"published"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
	ReadingMinutes int        `json:"readingMinutes,omitempty"`
	// Source records where an imported article came from, e.g.
	// "markdown:posts/guia.pt.md".
	Source string `json:"source,omitempty"`
}

func (BlogArticle) ContentType() Type   { return TypeBlogArticle }
func (p BlogArticle) SlugValue() string { return p.Slug }
func (p BlogArticle) TitleValue() string { return p.Title }
func (p *BlogArticle) SetSlug(s string) { p.Slug = s }
func (p BlogArticle) IsPublished() bool { return p.Published }

func (p BlogArticle) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Slug, validation.Required, slugRule),
		validation.Field(&p.ReadingMinutes, validation.Min(0)),
	)
}

// FAQItem is a question/answer pair in the FAQ collection.
type FAQItem struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Slug      string `json:"slug,omitempty"`
	Order     int    `json:"order,omitempty"`
	Published bool   `json:"published"`
}

func (FAQItem) ContentType() Type   { return TypeFAQ }
func (p FAQItem) SlugValue() string { return p.Slug }
func (p FAQItem) TitleValue() string { return p.Question }
func (p *FAQItem) SetSlug(s string) { p.Slug = s }
func (p FAQItem) IsPublished() bool { return p.Published }

func (p FAQItem) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Question, validation.Required),
		validation.Field(&p.Answer, validation.Required),
		validation.Field(&p.Slug, slugRule),
	)
}

// NewPayload returns an empty payload of the concrete type registered for t.
func NewPayload(t Type) (Payload, error) {
	switch t {
	case TypeHome:
		return &HomeContent{}, nil
	case TypeAbout:
		return &AboutContent{}, nil
	case TypeServices:
		return &ServicesContent{}, nil
	case TypeContact:
		return &ContactContent{}, nil
	case TypeGlobal:
		return &GlobalSettings{}, nil
	case TypeBlogArticle:
		return &BlogArticle{}, nil
	case TypeFAQ:
		return &FAQItem{}, nil
	default:
		return nil, ErrUnknownType
	}
}
