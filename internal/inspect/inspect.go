// Package inspect builds role inventories from CloudFormation templates.
//
// Parsing goes through the cloudformation-schema-go template library,
// which understands both JSON and YAML sources including short-form
// intrinsics, so the inventory sees templates the way CloudFormation
// would rather than the way rolepatch stores them.
package inspect

import (
	"sort"

	"github.com/lex00/cloudformation-schema-go/template"

	"github.com/rolepatch/rolepatch"
)

// Roles parses the template at path and returns its IAM roles, sorted by
// logical ID.
func Roles(path string) (*rolepatch.RolesResult, error) {
	tmpl, err := template.ParseTemplate(path)
	if err != nil {
		return nil, err
	}
	return rolesFromTemplate(tmpl), nil
}

// RolesFromContent is Roles for template bytes already in memory.
func RolesFromContent(content []byte, sourceName string) (*rolepatch.RolesResult, error) {
	tmpl, err := template.ParseTemplateContent(content, sourceName)
	if err != nil {
		return nil, err
	}
	return rolesFromTemplate(tmpl), nil
}

func rolesFromTemplate(tmpl *template.Template) *rolepatch.RolesResult {
	result := &rolepatch.RolesResult{Roles: []rolepatch.RoleInfo{}}
	for logicalID, resource := range tmpl.Resources {
		if resource.ResourceType != rolepatch.RoleResourceType {
			continue
		}
		result.Roles = append(result.Roles, roleInfo(logicalID, resource))
	}
	sort.Slice(result.Roles, func(i, j int) bool {
		return result.Roles[i].Name < result.Roles[j].Name
	})
	return result
}

func roleInfo(logicalID string, resource *template.Resource) rolepatch.RoleInfo {
	info := rolepatch.RoleInfo{Name: logicalID}

	for name, prop := range resource.Properties {
		switch name {
		case "RoleName":
			if s, ok := prop.Value.(string); ok {
				info.RoleName = s
			}
		case rolepatch.ManagedPolicyArnsKey:
			list, _ := prop.Value.([]any)
			for _, entry := range list {
				if s, ok := entry.(string); ok {
					info.Policies = append(info.Policies, s)
				} else {
					info.Unresolved++
				}
			}
		}
	}
	return info
}
