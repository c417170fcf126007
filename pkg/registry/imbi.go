package registry

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/AWeber-Imbi/imbi-automations/pkg/httpclient"
	"github.com/AWeber-Imbi/imbi-automations/pkg/logger"
	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/AWeber-Imbi/imbi-automations/pkg/ratelimit"
)

const imbiPageSize = 100

// Imbi wraps the project-registry REST API surface the core needs.
type Imbi struct {
	client *httpclient.Client
	log    *logger.Logger
}

// NewImbi constructs an Imbi client for the given hostname/token.
func NewImbi(hostname, token string) (*Imbi, error) {
	c, err := httpclient.GetOrCreate("imbi:"+hostname, func() (*httpclient.Client, error) {
		return httpclient.New(httpclient.Config{
			BaseURL:   "https://" + hostname,
			RateLimit: ratelimit.OperationImbiAPI,
			Headers:   map[string]string{"Private-Token": token},
		})
	})
	if err != nil {
		return nil, err
	}
	return &Imbi{client: c, log: logger.ForComponent("registry:imbi")}, nil
}

func (i *Imbi) classify(path string, resp *httpclient.Response) error {
	if resp.IsOK() {
		return nil
	}
	return &model.HTTPError{Host: "imbi", Path: path, StatusCode: resp.StatusCode, Body: string(resp.Body)}
}

type imbiSearchHit struct {
	ID int `json:"_id"`
}

// GetProject resolves a project by id via the opensearch index.
func (i *Imbi) GetProject(ctx context.Context, id int) (*model.Project, error) {
	path := fmt.Sprintf("/opensearch/projects?id=%d", id)
	resp, err := i.client.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := i.classify(path, resp); err != nil {
		return nil, err
	}
	var payload struct {
		Hits []model.Project `json:"hits"`
	}
	if err := resp.JSON(&payload); err != nil {
		return nil, fmt.Errorf("registry: decode project search %s: %w", path, err)
	}
	if len(payload.Hits) == 0 {
		return nil, nil
	}
	return &payload.Hits[0], nil
}

type projectPage struct {
	Projects []model.Project `json:"projects"`
}

// GetProjectsByType returns every active (non-archived) project of the
// given project-type slug, sorted by slug ascending.
func (i *Imbi) GetProjectsByType(ctx context.Context, slug string) ([]model.Project, error) {
	return i.paginate(ctx, fmt.Sprintf("/opensearch/projects?project_type=%s&archived=false", slug))
}

// GetAllProjects returns every active project, sorted by slug ascending.
func (i *Imbi) GetAllProjects(ctx context.Context) ([]model.Project, error) {
	return i.paginate(ctx, "/opensearch/projects?archived=false")
}

func (i *Imbi) paginate(ctx context.Context, basePath string) ([]model.Project, error) {
	var all []model.Project
	page := 1
	for {
		path := fmt.Sprintf("%s&page=%d&page_size=%d", basePath, page, imbiPageSize)
		resp, err := i.client.Get(ctx, path, nil)
		if err != nil {
			return nil, err
		}
		if err := i.classify(path, resp); err != nil {
			return nil, err
		}
		var pg projectPage
		if err := resp.JSON(&pg); err != nil {
			return nil, fmt.Errorf("registry: decode project page %s: %w", path, err)
		}
		all = append(all, pg.Projects...)
		if len(pg.Projects) < imbiPageSize {
			break
		}
		page++
	}
	sort.Slice(all, func(a, b int) bool { return all[a].Slug < all[b].Slug })
	return all, nil
}

func (i *Imbi) get(ctx context.Context, path string, v any) error {
	resp, err := i.client.Get(ctx, path, nil)
	if err != nil {
		return err
	}
	if err := i.classify(path, resp); err != nil {
		return err
	}
	if err := resp.JSON(v); err != nil {
		return fmt.Errorf("registry: decode %s: %w", path, err)
	}
	return nil
}

// GetProjectTypes fetches the full project-type reference list.
func (i *Imbi) GetProjectTypes(ctx context.Context) ([]model.ProjectType, error) {
	var out []model.ProjectType
	return out, i.get(ctx, "/project-types", &out)
}

// GetProjectFactTypes fetches the full fact-type reference list.
func (i *Imbi) GetProjectFactTypes(ctx context.Context) ([]model.ProjectFactType, error) {
	var out []model.ProjectFactType
	return out, i.get(ctx, "/project-fact-types", &out)
}

// GetProjectFactTypeEnums fetches enum-constraint values for fact types.
func (i *Imbi) GetProjectFactTypeEnums(ctx context.Context) ([]model.ProjectFactTypeEnum, error) {
	var out []model.ProjectFactTypeEnum
	return out, i.get(ctx, "/project-fact-type-enums", &out)
}

// GetProjectFactTypeRanges fetches range-constraint values for fact types.
func (i *Imbi) GetProjectFactTypeRanges(ctx context.Context) ([]model.ProjectFactTypeRange, error) {
	var out []model.ProjectFactTypeRange
	return out, i.get(ctx, "/project-fact-type-ranges", &out)
}

// GetEnvironments fetches the full environment reference list.
func (i *Imbi) GetEnvironments(ctx context.Context) ([]model.Environment, error) {
	var out []model.Environment
	return out, i.get(ctx, "/environments", &out)
}
