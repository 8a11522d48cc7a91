package fixtures

import "causaldiscovery/domain/causal"

var (
	nodePM25 = causal.PathNode{
		ID:        "PM2.5",
		Name:      "Particulate Matter (PM2.5)",
		Grounding: causal.Grounding{Database: "MESH", Identifier: "D052638"},
	}
	nodeNFKB1 = causal.PathNode{
		ID:        "NFKB1",
		Name:      "NF-κB p50",
		Grounding: causal.Grounding{Database: "HGNC", Identifier: "7794"},
	}
	nodeIL6 = causal.PathNode{
		ID:        "IL6",
		Name:      "Interleukin-6",
		Grounding: causal.Grounding{Database: "HGNC", Identifier: "6018"},
	}
	nodeOxidativeStress = causal.PathNode{
		ID:        "oxidative_stress",
		Name:      "Oxidative Stress",
		Grounding: causal.Grounding{Database: "GO", Identifier: "0006979"},
	}
	nodeRELA = causal.PathNode{
		ID:        "RELA",
		Name:      "NF-κB p65 (RELA)",
		Grounding: causal.Grounding{Database: "HGNC", Identifier: "9955"},
	}
	nodeCRP = causal.PathNode{
		ID:        "CRP",
		Name:      "C-Reactive Protein",
		Grounding: causal.Grounding{Database: "HGNC", Identifier: "2367"},
	}
	nodeROS = causal.PathNode{
		ID:        "ROS",
		Name:      "Reactive Oxygen Species",
		Grounding: causal.Grounding{Database: "MESH", Identifier: "D017382"},
	}
)

// builtinFixtures are the curated demo paths, keyed like FixtureKey.
func builtinFixtures() map[string][]causal.Path {
	return map[string][]causal.Path{
		// PM2.5 -> IL-6 via NF-kB, and an alternative via oxidative stress
		"PM2.5_to_IL6": {
			{
				Nodes: []causal.PathNode{nodePM25, nodeNFKB1, nodeIL6},
				Edges: []causal.PathEdge{
					{
						Source:        "PM2.5",
						Target:        "NFKB1",
						Relationship:  causal.RelationshipActivates,
						EvidenceCount: 47,
						Belief:        0.82,
						StatementType: "Activation",
						Sources:       []string{"PMID:12345678", "PMID:23456789", "PMID:34567890"},
					},
					{
						Source:        "NFKB1",
						Target:        "IL6",
						Relationship:  causal.RelationshipIncreases,
						EvidenceCount: 89,
						Belief:        0.91,
						StatementType: "IncreaseAmount",
						Sources:       []string{"PMID:34567891", "PMID:45678902"},
					},
				},
				Belief: 0.86,
			},
			{
				Nodes: []causal.PathNode{nodePM25, nodeOxidativeStress, nodeRELA, nodeIL6},
				Edges: []causal.PathEdge{
					{
						Source:        "PM2.5",
						Target:        "oxidative_stress",
						Relationship:  causal.RelationshipIncreases,
						EvidenceCount: 31,
						Belief:        0.78,
						StatementType: "Activation",
						Sources:       []string{"PMID:56789012"},
					},
					{
						Source:        "oxidative_stress",
						Target:        "RELA",
						Relationship:  causal.RelationshipActivates,
						EvidenceCount: 24,
						Belief:        0.75,
						StatementType: "Activation",
						Sources:       []string{"PMID:67890123"},
					},
					{
						Source:        "RELA",
						Target:        "IL6",
						Relationship:  causal.RelationshipIncreases,
						EvidenceCount: 76,
						Belief:        0.89,
						StatementType: "IncreaseAmount",
						Sources:       []string{"PMID:78901234"},
					},
				},
				Belief: 0.81,
			},
		},
		"IL6_to_CRP": {
			{
				Nodes: []causal.PathNode{nodeIL6, nodeCRP},
				Edges: []causal.PathEdge{
					{
						Source:        "IL6",
						Target:        "CRP",
						Relationship:  causal.RelationshipIncreases,
						EvidenceCount: 312,
						Belief:        0.98,
						StatementType: "IncreaseAmount",
						Sources:       []string{"PMID:45678901", "PMID:56789012"},
					},
				},
				Belief: 0.98,
			},
		},
		"PM2.5_to_oxidative_stress": {
			{
				Nodes: []causal.PathNode{nodePM25, nodeROS, nodeOxidativeStress},
				Edges: []causal.PathEdge{
					{
						Source:        "PM2.5",
						Target:        "ROS",
						Relationship:  causal.RelationshipIncreases,
						EvidenceCount: 52,
						Belief:        0.85,
						StatementType: "IncreaseAmount",
						Sources:       []string{"PMID:11111111"},
					},
					{
						Source:        "ROS",
						Target:        "oxidative_stress",
						Relationship:  causal.RelationshipIncreases,
						EvidenceCount: 87,
						Belief:        0.92,
						StatementType: "Activation",
						Sources:       []string{"PMID:22222222"},
					},
				},
				Belief: 0.88,
			},
		},
	}
}
