package attach

import (
	"io"

	"github.com/rolepatch/rolepatch"
	"github.com/rolepatch/rolepatch/internal/plugin"
)

// PluginName identifies the attach pass to the lifecycle manager.
const PluginName = "attach-managed-policies"

// Plugin adapts the attach pass to the deployment lifecycle contract. It
// reads its inputs from the deployment context captured at construction
// and fires once at the before-deploy point.
type Plugin struct {
	service  *rolepatch.Service
	template *rolepatch.Template
	attacher Attacher
}

// NewPlugin builds the lifecycle adapter. Either context half may be nil;
// a nil service contributes no policies and a nil template contributes no
// resources, so the hook no-ops.
func NewPlugin(service *rolepatch.Service, template *rolepatch.Template, out io.Writer) *Plugin {
	return &Plugin{
		service:  service,
		template: template,
		attacher: Attacher{Out: out},
	}
}

func (p *Plugin) Name() string { return PluginName }

// Hooks registers the attach pass at the before-deploy lifecycle point.
func (p *Plugin) Hooks() []plugin.Hook {
	return []plugin.Hook{
		{Name: plugin.BeforeDeploy, Handler: p.run},
	}
}

func (p *Plugin) run() error {
	var policies []string
	if p.service != nil {
		policies = p.service.Provider.ManagedPolicyArns
	}
	var resources map[string]rolepatch.ResourceDef
	if p.template != nil {
		resources = p.template.Resources
	}
	return p.attacher.Attach(policies, resources)
}
