package store

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/tododb/pkg/model"
)

type demoTodo struct {
	title       string
	description string
	children    []demoTodo
}

// demoProjects is the sample data set for --demo.
var demoProjects = []demoTodo{
	{
		title: "📱 E-commerce Website Redesign",
		description: "## Project Overview\n\nRebuild the storefront for mobile first checkout.\n\n" +
			"- Budget: 6 weeks\n- [Design system](https://example.com/design)",
		children: []demoTodo{
			{
				title:       "🎨 Frontend Implementation",
				description: "### Stack\n- React 18 + TypeScript\n- Tailwind CSS\n- Vite",
				children: []demoTodo{
					{title: "🔧 Setup React + TypeScript project structure", description: "- [ ] eslint\n- [ ] prettier\n- [ ] path aliases"},
					{title: "🛒 Implement shopping cart component", description: "Persist the cart in local storage and sync on login."},
					{title: "🔐 User authentication & profile management", description: "JWT access tokens with refresh rotation."},
				},
			},
			{
				title:       "⚙️ Backend API Development",
				description: "Node service behind the API gateway.",
				children: []demoTodo{
					{title: "🗄️ Design database schema for products & users", description: "Products, variants, users, orders, order_items."},
					{title: "🔌 Build REST API endpoints for product catalog", description: "`GET /products?page=1&limit=20` with filtering and pagination."},
				},
			},
		},
	},
	{
		title:       "📱 React Native Fitness Tracker",
		description: "## Fitness Tracker Mobile App\n\nTrack workouts, progress and goals on iOS and Android.",
		children: []demoTodo{
			{title: "⚡ Setup React Native development environment", description: "Xcode, Android Studio, Watchman and the RN CLI."},
			{title: "💪 Implement workout logging screen", description: "Sets, reps and weight per exercise with a rest timer."},
		},
	},
	{
		title:       "☁️ Kubernetes Cluster Migration",
		description: "## Infrastructure Modernization\n\nMove the services from VMs to EKS.",
		children: []demoTodo{
			{title: "🏗️ Setup EKS cluster with Terraform", description: "Managed node groups, IRSA, EBS CSI driver."},
			{title: "📊 Implement monitoring with Prometheus & Grafana", description: "kube-prometheus-stack with alerting to Slack."},
		},
	},
	{
		title:       "🧠 Personal Development Goals 2024",
		description: "## Annual Personal Growth Plan",
		children: []demoTodo{
			{title: "💪 Start morning exercise routine", description: "20 minutes, five days a week."},
			{title: "📚 Read 'Atomic Habits' by James Clear", description: "One chapter per day, notes in the journal."},
			{title: "💰 Research investment portfolio strategy", description: "Compare index fund allocations."},
		},
	},
	{
		title:       "🎓 Tech Learning Roadmap",
		description: "## 2024 Technical Skill Development",
		children: []demoTodo{
			{title: "🦀 Learn Rust programming fundamentals", description: "Ownership, borrowing, lifetimes, then a small CLI."},
			{title: "☁️ Study for AWS Solutions Architect certification", description: "SAA-C03, about 12 hours per week for 8 weeks."},
		},
	},
}

// SeedDemo fills the store with the demo projects and completes roughly a
// third of the non-project todos. It returns the number of todos created.
func (s *Store) SeedDemo(ctx context.Context) (int, error) {
	projects := make(map[int64]bool)
	var created []int64

	var insert func(items []demoTodo, parent *int64) error
	insert = func(items []demoTodo, parent *int64) error {
		for _, it := range items {
			id, err := s.Create(ctx, model.NewTodo{Title: it.title, Description: it.description, ParentID: parent})
			if err != nil {
				return fmt.Errorf("seed %q: %w", it.title, err)
			}
			created = append(created, id)
			if parent == nil {
				projects[id] = true
			}
			if err := insert(it.children, model.Ptr(id)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(demoProjects, nil); err != nil {
		return 0, err
	}

	target := len(created) / 3
	done := 0
	for _, id := range created {
		if done >= target {
			break
		}
		if projects[id] {
			continue
		}
		if err := s.SetCompleted(ctx, id, true); err != nil {
			return 0, err
		}
		done++
	}
	return len(created), nil
}
