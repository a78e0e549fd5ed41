package model

// Axis identifies one of the two scoring dimensions a competitor is
// positioned on.
type Axis string

const (
	// AxisStrategy is the X axis: market positioning strength.
	AxisStrategy Axis = "X"
	// AxisComplexity is the Y axis: product and operational depth.
	AxisComplexity Axis = "Y"
)

// AttributeDefinition describes one entry of the fixed scoring catalog.
// The axis assignment is part of the definition and never inferred from a
// record.
type AttributeDefinition struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Axis        Axis   `json:"axis"`
}

// Attribute codes of the default catalog.
const (
	AttrPriceCompetitiveness    = "price_competitiveness"
	AttrFeatureSetCompleteness  = "feature_set_completeness"
	AttrBrandSentiment          = "brand_sentiment"
	AttrMarketReach             = "market_reach"
	AttrInnovationScore         = "innovation_score"
	AttrCustomerSatisfaction    = "customer_satisfaction"
	AttrEaseOfUse               = "ease_of_use"
	AttrIntegrationCapabilities = "integration_capabilities"
	AttrSupportQuality          = "support_quality"
	AttrSecurityCompliance      = "security_compliance"
)

// DefaultCatalog returns the ten-attribute scoring catalog. Callers get a
// fresh slice each time, so the catalog cannot be mutated globally.
func DefaultCatalog() []AttributeDefinition {
	return []AttributeDefinition{
		{Code: AttrPriceCompetitiveness, Name: "Price Competitiveness", Description: "Higher is better/cheaper", Axis: AxisStrategy},
		{Code: AttrFeatureSetCompleteness, Name: "Feature Set Completeness", Description: "Completeness of features", Axis: AxisComplexity},
		{Code: AttrBrandSentiment, Name: "Brand Sentiment", Description: "Public perception", Axis: AxisStrategy},
		{Code: AttrMarketReach, Name: "Market Reach", Description: "Market presence", Axis: AxisStrategy},
		{Code: AttrInnovationScore, Name: "Innovation Score", Description: "Level of innovation", Axis: AxisStrategy},
		{Code: AttrCustomerSatisfaction, Name: "Customer Satisfaction", Description: "User happiness", Axis: AxisStrategy},
		{Code: AttrEaseOfUse, Name: "Ease of Use", Description: "Usability", Axis: AxisComplexity},
		{Code: AttrIntegrationCapabilities, Name: "Integration Capabilities", Description: "Ability to integrate", Axis: AxisComplexity},
		{Code: AttrSupportQuality, Name: "Support Quality", Description: "Quality of support", Axis: AxisComplexity},
		{Code: AttrSecurityCompliance, Name: "Security/Compliance", Description: "Security standards", Axis: AxisComplexity},
	}
}
