package elements

import (
	"context"
	"errors"
	"io"
)

// DefaultScriptURL is where the hosted runtime script is loaded from.
const DefaultScriptURL = "https://elements.thisismatter.com/elements.js"

const defaultPageTemplate = "page.html"

// PageSource is the view of the service the page controller reads from.
type PageSource interface {
	Container() *Container
	Portfolio() (PortfolioQuery, bool)
	AuthToken() (string, bool)
	Status() Status
}

// NotificationFeed lists recent notifications for the page.
type NotificationFeed interface {
	RecentNotifications() []Notification
}

// ControllerOptions configures the page controller.
type ControllerOptions struct {
	Service       PageSource
	Renderer      Renderer
	Template      string
	Title         string
	Locale        string
	ScriptURL     string
	StylesheetURL string
	EventsURL     string
	Preview       *PortfolioPreview
	Notifications NotificationFeed
}

// Controller renders the host page that bootstraps the hosted element.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	if opts.Template == "" {
		opts.Template = defaultPageTemplate
	}
	if opts.ScriptURL == "" {
		opts.ScriptURL = DefaultScriptURL
	}
	if opts.Title == "" {
		opts.Title = "Matter Elements"
	}
	return &Controller{opts: opts}
}

// PagePayload assembles the template context. The token is read lazily here,
// never captured earlier.
func (c *Controller) PagePayload(ctx context.Context) (map[string]any, error) {
	if c.opts.Service == nil {
		return nil, errors.New("elements: controller has no service")
	}
	status := c.opts.Service.Status()
	payload := map[string]any{
		"title":          c.opts.Title,
		"locale":         c.opts.Locale,
		"script_url":     c.opts.ScriptURL,
		"stylesheet_url": c.opts.StylesheetURL,
		"events_url":     c.opts.EventsURL,
		"state":          status.State.String(),
		"impact":         string(status.Impact),
		"container_id":   defaultContainerID,
	}
	container := c.opts.Service.Container()
	if container != nil {
		payload["container_id"] = container.ID()
		if mount, ok := container.Mount(); ok {
			payload["element"] = map[string]any{
				"instance_id": mount.InstanceID,
				"impact":      string(mount.Impact),
				"portfolio":   mount.Portfolio,
				"options":     mount.Options,
			}
		}
	}
	if token, ok := c.opts.Service.AuthToken(); ok {
		payload["auth_token"] = token
	}
	if c.opts.Preview != nil {
		if q, ok := c.opts.Service.Portfolio(); ok {
			html, err := c.opts.Preview.Render(q)
			if err != nil {
				return nil, err
			}
			payload["preview_html"] = html
		}
	}
	if c.opts.Notifications != nil {
		notes := c.opts.Notifications.RecentNotifications()
		items := make([]map[string]any, 0, len(notes))
		for _, n := range notes {
			items = append(items, map[string]any{
				"level":   string(n.Level),
				"title":   n.Title,
				"message": n.Message,
			})
		}
		payload["notifications"] = items
	}
	return payload, nil
}

// RenderTemplate renders the page into out.
func (c *Controller) RenderTemplate(ctx context.Context, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("elements: controller has no renderer")
	}
	payload, err := c.PagePayload(ctx)
	if err != nil {
		return err
	}
	_, err = c.opts.Renderer.Render(c.opts.Template, payload, out)
	return err
}
