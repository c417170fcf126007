package factregistry

import (
	"context"
	"testing"

	"github.com/AWeber-Imbi/imbi-automations/pkg/model"
	"github.com/stretchr/testify/require"
)

type fakeImbi struct {
	projectTypes []model.ProjectType
	factTypes    []model.ProjectFactType
	enums        []model.ProjectFactTypeEnum
	ranges       []model.ProjectFactTypeRange
}

func (f *fakeImbi) GetProjectTypes(ctx context.Context) ([]model.ProjectType, error) {
	return f.projectTypes, nil
}

func (f *fakeImbi) GetProjectFactTypes(ctx context.Context) ([]model.ProjectFactType, error) {
	return f.factTypes, nil
}

func (f *fakeImbi) GetProjectFactTypeEnums(ctx context.Context) ([]model.ProjectFactTypeEnum, error) {
	return f.enums, nil
}

func (f *fakeImbi) GetProjectFactTypeRanges(ctx context.Context) ([]model.ProjectFactTypeRange, error) {
	return f.ranges, nil
}

func TestLoad_BuildsDefinitionsFromAPI(t *testing.T) {
	client := &fakeImbi{
		projectTypes: []model.ProjectType{{ID: 1, Slug: "api", Name: "API"}},
		factTypes: []model.ProjectFactType{
			{ID: 10, Name: "Programming Language", Kind: KindEnum},
			{ID: 11, Name: "Test Coverage", Kind: KindRange},
			{ID: 12, Name: "Notes", Kind: KindFreeForm},
		},
		enums: []model.ProjectFactTypeEnum{
			{FactTypeID: 10, Value: "python"},
			{FactTypeID: 10, Value: "go"},
		},
		ranges: []model.ProjectFactTypeRange{
			{FactTypeID: 11, MinValue: 0, MaxValue: 100},
		},
	}

	r, err := Load(context.Background(), client, "imbi.example.com", false)
	require.NoError(t, err)

	_, ok := r.ProjectTypeSlugs["api"]
	require.True(t, ok)

	def, ok := r.Get("programming_language")
	require.True(t, ok)
	require.Equal(t, KindEnum, def.Kind)
	require.ElementsMatch(t, []string{"python", "go"}, def.EnumValues)
}

func TestValidateValue_Enum(t *testing.T) {
	r := &Registry{bySlug: map[string][]FactTypeDefinition{}, ProjectTypeSlugs: map[string]struct{}{}}
	r.register(FactTypeDefinition{ID: 1, Name: "Language", Slug: "language", Kind: KindEnum, EnumValues: []string{"go", "python"}})

	require.NoError(t, r.ValidateValue("language", "go"))
	require.Error(t, r.ValidateValue("language", "rust"))
}

func TestValidateValue_Range(t *testing.T) {
	min, max := 0.0, 100.0
	r := &Registry{bySlug: map[string][]FactTypeDefinition{}, ProjectTypeSlugs: map[string]struct{}{}}
	r.register(FactTypeDefinition{ID: 2, Name: "Coverage", Slug: "coverage", Kind: KindRange, MinValue: &min, MaxValue: &max})

	require.NoError(t, r.ValidateValue("coverage", "55"))
	require.Error(t, r.ValidateValue("coverage", "150"))
	require.Error(t, r.ValidateValue("coverage", "not-a-number"))
}

func TestValidateValue_UnknownFact(t *testing.T) {
	r := &Registry{bySlug: map[string][]FactTypeDefinition{}, ProjectTypeSlugs: map[string]struct{}{}}
	require.Error(t, r.ValidateValue("nonexistent", "x"))
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "programming_language", NormalizeName("Programming Language"))
	require.Equal(t, "ci_cd_tool", NormalizeName("CI-CD Tool"))
}
