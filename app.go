package main

import (
	"github.com/genautech/rewards_backend/workflow"
	"github.com/sirupsen/logrus"
)

// App holds the services every handler runs against.
type App struct {
	Repos        workflow.Repositories
	Budgets      *workflow.BudgetService
	StateMachine *workflow.BudgetStateMachine
	Totals       *workflow.TotalsCalculator
	Replicator   *workflow.BudgetReplicator
	Logger       *logrus.Logger
}

func NewApp(repos workflow.Repositories, locker workflow.BudgetLocker, logger *logrus.Logger) *App {
	return &App{
		Repos:        repos,
		Budgets:      workflow.NewBudgetService(repos),
		StateMachine: workflow.NewBudgetStateMachine(repos.Budgets),
		Totals:       workflow.NewTotalsCalculator(repos.Budgets, repos.Items),
		Replicator:   workflow.NewBudgetReplicator(repos, locker, logger),
		Logger:       logger,
	}
}
